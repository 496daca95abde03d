package domain

import "strings"

// phasePattern 把日志文本片段映射到阶段。顺序即阶段先后。
type phasePattern struct {
	substr string
	phase  Phase
}

// 新写入的日志都带显式 Phase 标签；这张表只为两类读者服务：
// 打标前写入的历史条目，以及把日志当唯一事实来源的轮询端。
var phasePatterns = []phasePattern{
	{"initiating", PhasePreparing},
	{"preparing", PhasePreparing},
	{"packaging", PhasePackaging},
	{"prepared", PhasePackaging},
	{"uploading", PhaseUploading},
	{"vercel api response", PhaseBuilding},
	{"render api response", PhaseBuilding},
	{"starting verification", PhaseVerifying},
	{"got 401", PhaseVerifying},
	{"app verified and published", PhasePublished},
}

// phaseRank 用于保证推断结果只向前推进。
var phaseRank = map[Phase]int{
	PhaseIdle:      0,
	PhasePreparing: 1,
	PhasePackaging: 2,
	PhaseUploading: 3,
	PhaseBuilding:  4,
	PhaseVerifying: 5,
	PhasePublished: 6,
	PhaseFailed:    7,
}

// PhaseFromLogs 对一份有序日志列表做确定性的阶段推断。
// 从头扫到尾：带标签的条目直接采用，未打标的条目按子串匹配；
// 阶段与百分比在单次扫描内单调不减。同一份输入永远得到同一份输出。
func PhaseFromLogs(logs []LogEntry) (Phase, int) {
	phase := PhaseIdle
	percent := 0

	advance := func(p Phase, pct int) {
		if phaseRank[p] >= phaseRank[phase] {
			phase = p
		}
		if pct > percent {
			percent = pct
		}
	}

	for _, e := range logs {
		if e.Phase != "" {
			pct := e.Percent
			if pct == 0 {
				pct = e.Phase.Percent()
			}
			advance(e.Phase, pct)
			continue
		}

		msg := strings.ToLower(e.Message)
		for _, pp := range phasePatterns {
			if strings.Contains(msg, pp.substr) {
				advance(pp.phase, pp.phase.Percent())
			}
		}
	}

	// 以 error 条目收尾的日志代表失败的尝试；百分比冻结在失败点。
	if n := len(logs); n > 0 && logs[n-1].Level == LogError && phase != PhasePublished {
		phase = PhaseFailed
	}

	return phase, percent
}
