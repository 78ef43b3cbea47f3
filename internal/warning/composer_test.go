package warning

import (
	"strings"
	"testing"

	"github.com/soyeahso/scambot/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestImageNil(t *testing.T) {
	assert.Equal(t, CannotAnalyze, Composer{}.Image(nil))
}

func TestImageTemplates(t *testing.T) {
	tests := []struct {
		scamType string
		contains []string
	}{
		{domain.ScamTypeInvestment, []string{"投資詐騙", "高報酬投資"}},
		{domain.ScamTypePhishing, []string{"釣魚詐騙", "不明連結"}},
		{domain.ScamTypeLowQuality, []string{"可疑截圖", "變造"}},
		{"romance_scam", []string{"未知類型 (romance_scam)", "不要轉帳或匯款"}},
		{"", []string{"未知類型"}},
	}
	for _, tt := range tests {
		t.Run(tt.scamType, func(t *testing.T) {
			v := &domain.Verdict{IsScam: true, Confidence: 0.85, ScamType: tt.scamType, RiskLevel: domain.RiskHigh}
			out := Composer{}.Image(v)
			assert.Contains(t, out, "[警示] 圖片分析結果")
			assert.Contains(t, out, "詐騙可能性：85.0%")
			assert.Contains(t, out, "詐騙類型")
			assert.Contains(t, out, "風險等級：高")
			assert.Contains(t, out, "165")
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
		})
	}
}

func TestImageHotlineIsLastTip(t *testing.T) {
	out := Composer{}.Image(&domain.Verdict{ScamType: domain.ScamTypeInvestment, Confidence: 0.9})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "4. "+Hotline, lines[len(lines)-1])
}

func TestImageDetectedElements(t *testing.T) {
	v := &domain.Verdict{ScamType: domain.ScamTypePhishing, Confidence: 0.9, DetectedElements: []string{"impersonation", "suspicious_link"}}
	assert.Contains(t, Composer{}.Image(v), "可疑特徵：impersonation、suspicious_link")

	v.DetectedElements = nil
	assert.NotContains(t, Composer{}.Image(v), "可疑特徵")
}

func TestTextWarning(t *testing.T) {
	tests := []struct {
		name string
		v    domain.Verdict
		want bool
	}{
		{"scam high", domain.Verdict{IsScam: true, Confidence: 0.9}, true},
		{"scam at threshold", domain.Verdict{IsScam: true, Confidence: 0.7}, false},
		{"scam low", domain.Verdict{IsScam: true, Confidence: 0.5}, false},
		{"safe high", domain.Verdict{IsScam: false, Confidence: 0.95}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Composer{}.TextWarning(tt.v)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestTextReplyScam(t *testing.T) {
	out := Composer{}.TextReply(domain.Verdict{IsScam: true, Label: domain.LabelScam, Confidence: 0.9})
	assert.Equal(t, DefaultScamReply+"\n[警示] 你可能正被詐騙，請提高警覺（可信度 90.0%）", out)
	assert.Contains(t, out, "可信度 90.0%")
}

func TestTextReplySafe(t *testing.T) {
	assert.Equal(t, DefaultSafeReply, Composer{}.TextReply(domain.Verdict{Label: domain.LabelSafe, Confidence: 0.1}))
}

func TestTextReplyUsesVerdictReply(t *testing.T) {
	out := Composer{}.TextReply(domain.Verdict{IsScam: true, Confidence: 0.82, Reply: "真的嗎？"})
	assert.Equal(t, "真的嗎？\n[警示] 你可能正被詐騙，請提高警覺（可信度 82.0%）", out)
}

func TestCustomThreshold(t *testing.T) {
	_, ok := Composer{Threshold: 0.95}.TextWarning(domain.Verdict{IsScam: true, Confidence: 0.9})
	assert.False(t, ok)
}
