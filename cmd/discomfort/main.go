// Command discomfort scores street discomfort and builds distance trade-off curves.
package main

import (
	"github.com/huangsam/discomfort/cmd"
	"github.com/huangsam/discomfort/internal/contract"
	"github.com/huangsam/discomfort/internal/iocache"
)

func main() {
	err := cmd.Execute()
	if perr := cmd.StopProfiling(); perr != nil {
		contract.LogWarn("Failed to stop profiling", perr)
	}
	iocache.CloseStores()
	if err != nil {
		contract.LogFatal("discomfort failed", err)
	}
}
