package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/soyeahso/scambot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupHome points SCAMBOT_HOME at a temp dir and writes configYAML when
// non-empty.
func setupHome(t *testing.T, configYAML string) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("SCAMBOT_HOME", home)
	for _, k := range []string{"CHANNEL_ACCESS_TOKEN", "CHANNEL_SECRET", "ASSERTION_SIGNING_KEY", "SCAMBOT_ANALYSIS_ENDPOINT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	if configYAML != "" {
		require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(configYAML), 0o600))
	}
	return home
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--log-level", "silent"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	setupHome(t, "")
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "scambot ")
}

func TestClassifyTextScam(t *testing.T) {
	setupHome(t, "")
	out, err := run(t, "classify", "錢怎麼轉給你")
	require.NoError(t, err)

	var res classifyResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotNil(t, res.Verdict)
	assert.True(t, res.Verdict.IsScam)
	assert.Equal(t, domain.RiskHigh, res.Verdict.RiskLevel)
	assert.Equal(t, []string{"錢怎麼轉"}, res.Verdict.DetectedElements)
	assert.Contains(t, res.Reply, "[警示]")
}

func TestClassifyTextSafe(t *testing.T) {
	setupHome(t, "")
	out, err := run(t, "classify", "今天天氣很好")
	require.NoError(t, err)

	var res classifyResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Verdict.IsScam)
	assert.Equal(t, domain.LabelSafe, res.Verdict.Label)
	assert.NotContains(t, res.Reply, "[警示]")
}

func TestClassifyImage(t *testing.T) {
	setupHome(t, "")
	img := filepath.Join(t.TempDir(), "tiny.jpg")
	require.NoError(t, os.WriteFile(img, []byte("tiny"), 0o600))

	out, err := run(t, "classify", "--image", img)
	require.NoError(t, err)

	var res classifyResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotNil(t, res.Verdict)
	assert.Equal(t, domain.ScamTypeLowQuality, res.Verdict.ScamType)
	assert.Contains(t, res.Reply, "165")
}

func TestClassifyRequiresInput(t *testing.T) {
	setupHome(t, "")
	_, err := run(t, "classify")
	assert.Error(t, err)
}

func TestClassifyRemoteRequiresEndpoint(t *testing.T) {
	setupHome(t, "")
	_, err := run(t, "classify", "--remote", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis.endpoint")
}

func TestPushCmd(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/bot/message/push", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	setupHome(t, "line:\n  accessToken: tok\n  apiBase: "+srv.URL+"\noutbound:\n  retryMax: 0\n")

	out, err := run(t, "push", "--to", "U1", "hello", "there")
	require.NoError(t, err)
	assert.Contains(t, out, "Sent 1 message(s) to U1")

	assert.Equal(t, "U1", got["to"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello there", msgs[0].(map[string]any)["text"])
}

func TestPushRequiresRecipientAndToken(t *testing.T) {
	setupHome(t, "")

	_, err := run(t, "push", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--to")

	_, err = run(t, "push", "--to", "U1", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accessToken")
}

func TestConfigSetGetMasksSecrets(t *testing.T) {
	setupHome(t, "")

	out, err := run(t, "config", "set", "line.accessToken", "supersecrettoken")
	require.NoError(t, err)
	assert.NotContains(t, out, "supersecrettoken")

	out, err = run(t, "config", "get", "line.accessToken")
	require.NoError(t, err)
	assert.Equal(t, "************oken\n", out)

	out, err = run(t, "config", "get", "line")
	require.NoError(t, err)
	assert.NotContains(t, out, "supersecrettoken")

	_, err = run(t, "config", "set", "server.port", "9000")
	require.NoError(t, err)
	out, err = run(t, "config", "get", "server.port")
	require.NoError(t, err)
	assert.Equal(t, "9000\n", out)

	_, err = run(t, "config", "unset", "server.port")
	require.NoError(t, err)
	_, err = run(t, "config", "get", "server.port")
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	setupHome(t, "server:\n  bind: tailnet\n")
	out, err := run(t, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, out, "server.bind")

	setupHome(t, "")
	out, err = run(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Config OK")

	_, err = run(t, "config", "validate", "--credentials")
	assert.Error(t, err)
}

func TestStatusCmd(t *testing.T) {
	setupHome(t, "line:\n  accessToken: tok\nhistory:\n  store: sqlite\n")
	out, err := run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "token=set secret=unset")
	assert.Contains(t, out, "store=sqlite")
	assert.Contains(t, out, "Analysis: keyword")
	assert.Contains(t, out, "line.channelSecret")
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, true, parseValue("TRUE"))
	assert.Equal(t, 42, parseValue("42"))
	assert.Equal(t, 1.5, parseValue("1.5"))
	assert.Equal(t, "hello", parseValue("hello"))
}

func TestMask(t *testing.T) {
	assert.Equal(t, "***", mask("abc"))
	assert.Equal(t, "**cdef", mask("abcdef"))
}
