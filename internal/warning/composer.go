// Package warning turns verdicts into user-facing reply text.
package warning

import (
	"fmt"
	"strings"

	"github.com/soyeahso/scambot/internal/domain"
)

// Fixed replies.
const (
	CannotAnalyze    = "無法分析圖片內容，請提高警覺。"
	CannotProcess    = "無法處理圖片，請稍後再試。"
	ImageLooksSafe   = "圖片分析完成，未發現明顯詐騙跡象，但仍請保持警覺。"
	DefaultScamReply = "這是我投資成功的故事，你想聽嗎？"
	DefaultSafeReply = "哈哈你說得真有趣，我懂你！"
	Hotline          = "如有疑慮請撥打 165 反詐騙專線"
)

// DefaultThreshold is the confidence a text verdict must exceed to carry
// a warning line.
const DefaultThreshold = 0.7

var typeNames = map[string]string{
	domain.ScamTypeInvestment: "投資詐騙",
	domain.ScamTypePhishing:   "釣魚詐騙",
	domain.ScamTypeLowQuality: "可疑截圖",
}

var levelNames = map[domain.RiskLevel]string{
	domain.RiskLow:    "低",
	domain.RiskMedium: "中",
	domain.RiskHigh:   "高",
}

// advice lists the numbered tips shown per scam type. The hotline is
// always appended as the final tip.
var advice = map[string][]string{
	domain.ScamTypeInvestment: {
		"不要輕易相信高報酬投資",
		"不要提供個人資料",
		"不要轉帳或匯款",
	},
	domain.ScamTypePhishing: {
		"不要點擊不明連結",
		"不要輸入帳號密碼或驗證碼",
		"向官方管道確認訊息真偽",
	},
	domain.ScamTypeLowQuality: {
		"截圖可能經過變造，請向對方查證",
		"不要依截圖內容轉帳或匯款",
	},
}

var genericAdvice = []string{
	"不要提供個人資料",
	"不要轉帳或匯款",
}

// Composer renders verdicts as reply text.
type Composer struct {
	// Threshold for text warnings; zero uses DefaultThreshold.
	Threshold float64
}

// Image renders an image verdict. A nil verdict yields CannotAnalyze.
func (c Composer) Image(v *domain.Verdict) string {
	if v == nil {
		return CannotAnalyze
	}

	typeName, ok := typeNames[v.ScamType]
	if !ok {
		typeName = "未知類型"
	}
	if v.ScamType != "" {
		typeName = fmt.Sprintf("%s (%s)", typeName, v.ScamType)
	}
	level, ok := levelNames[v.RiskLevel]
	if !ok {
		level = "未知"
	}

	var b strings.Builder
	b.WriteString("\n[警示] 圖片分析結果：\n")
	fmt.Fprintf(&b, "- 詐騙可能性：%.1f%%\n", v.Percent())
	fmt.Fprintf(&b, "- 詐騙類型：%s\n", typeName)
	fmt.Fprintf(&b, "- 風險等級：%s\n", level)
	if len(v.DetectedElements) > 0 {
		fmt.Fprintf(&b, "- 可疑特徵：%s\n", strings.Join(v.DetectedElements, "、"))
	}

	tips, ok := advice[v.ScamType]
	if !ok {
		tips = genericAdvice
	}
	b.WriteString("\n請注意：\n")
	for i, tip := range tips {
		fmt.Fprintf(&b, "%d. %s\n", i+1, tip)
	}
	fmt.Fprintf(&b, "%d. %s\n", len(tips)+1, Hotline)
	return b.String()
}

// TextWarning returns the single-line warning for a text verdict and
// whether one applies.
func (c Composer) TextWarning(v domain.Verdict) (string, bool) {
	threshold := c.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if !v.IsScam || v.Confidence <= threshold {
		return "", false
	}
	return fmt.Sprintf("[警示] 你可能正被詐騙，請提高警覺（可信度 %.1f%%）", v.Percent()), true
}

// TextReply returns the full reply for a text verdict: the verdict's own
// reply or a default, followed by the warning line when one applies.
func (c Composer) TextReply(v domain.Verdict) string {
	reply := v.Reply
	if reply == "" {
		if v.IsScam {
			reply = DefaultScamReply
		} else {
			reply = DefaultSafeReply
		}
	}
	if w, ok := c.TextWarning(v); ok {
		reply += "\n" + w
	}
	return reply
}
