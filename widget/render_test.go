package widget

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, f *UnsubscribeForm) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, MustNewRenderer().Unsubscribe(&buf, f))
	return buf.String()
}

func TestRenderUnsubscribeStates(t *testing.T) {
	initial := render(t, &UnsubscribeForm{Email: "a@x.com", Message: MsgEmailMissing})
	assert.Contains(t, initial, `data-status="initial"`)
	assert.Contains(t, initial, `value="a@x.com"`)
	assert.Contains(t, initial, MsgEmailMissing)
	assert.Contains(t, initial, ">Unsubscribe</button>")

	loading := render(t, &UnsubscribeForm{Status: StatusLoading, Submitting: true})
	assert.Contains(t, loading, `data-status="loading"`)
	assert.NotContains(t, loading, "<form")

	loaded := render(t, &UnsubscribeForm{Status: StatusLoaded})
	assert.Contains(t, loaded, `data-status="loaded"`)
	assert.Contains(t, loaded, MsgDefaultRemoval)
}

func TestRenderUnsubscribeEscapesInput(t *testing.T) {
	out := render(t, &UnsubscribeForm{Email: `"><script>x</script>`})
	assert.NotContains(t, out, "<script>x</script>")
}

func TestRenderUnsubscribeUnknownStatus(t *testing.T) {
	var buf bytes.Buffer
	err := MustNewRenderer().Unsubscribe(&buf, &UnsubscribeForm{Status: Status(9)})
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestRenderSubscribe(t *testing.T) {
	var buf bytes.Buffer
	f := &SubscribeForm{Message: "Subscribed successfully!", Tone: ToneSuccess}
	require.NoError(t, MustNewRenderer().Subscribe(&buf, f))

	out := buf.String()
	assert.Contains(t, out, "Subscribe to Our Newsletter")
	assert.Contains(t, out, `data-tone="success"`)
	assert.Contains(t, out, "Subscribed successfully!")
}
