package engine

import "github.com/tliron/commonlog"

var (
	agentLog = commonlog.GetLogger("specjs.agent")
	realmLog = commonlog.GetLogger("specjs.realm")
	jobsLog  = commonlog.GetLogger("specjs.jobs")
)

func debugEnabled(l commonlog.Logger) bool {
	return l.AllowLevel(commonlog.Debug)
}
