package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstehr/sift/model"
	"github.com/nstehr/sift/sink"
)

func runAction(t *testing.T, fn ActionFunc, rec model.Record) []string {
	t.Helper()
	out := sink.NewRecorder()
	require.NoError(t, fn(NewRecordEnv(rec), out))
	return out.Lines()
}

func TestBuiltinActions(t *testing.T) {
	rec := model.Record{Category: "debug", Payload: "This is debug info"}
	reg := DefaultActions()

	tests := []struct {
		spec ActionSpec
		want []string
	}{
		{ActionSpec{Kind: KindEmit, Prefix: "DEBUG:"}, []string{"DEBUG:This is debug info"}},
		{ActionSpec{Kind: KindDump, Prefix: "UNKNOWN TYPE:"}, []string{`UNKNOWN TYPE:{category: "debug", payload: "This is debug info"}`}},
		{ActionSpec{Kind: KindRender, Expr: `upper(Category) + " (" + string(Words()) + " words)"`}, []string{"DEBUG (4 words)"}},
		{ActionSpec{Kind: KindDrop}, nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.spec.Kind), func(t *testing.T) {
			fn, err := reg.Build(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, nilIfEmpty(runAction(t, fn, rec)))
		})
	}
}

func TestActionRegistryErrors(t *testing.T) {
	reg := DefaultActions()

	_, err := reg.Build(ActionSpec{Kind: "page"})
	require.ErrorIs(t, err, ErrUnknownActionKind)

	_, err = reg.Build(ActionSpec{Kind: KindRender})
	require.ErrorIs(t, err, ErrMissingExpr)

	_, err = reg.Build(ActionSpec{Kind: KindRender, Expr: `Length()`})
	require.Error(t, err, "render expr must produce a string")
}

func TestActionRegistryIsOpenForExtension(t *testing.T) {
	reg := DefaultActions()
	reg["shout"] = func(spec ActionSpec) (ActionFunc, error) {
		return func(env RecordEnv, out Sink) error {
			return out.Emit(env.Category, spec.Prefix+env.Payload+"!")
		}, nil
	}

	fn, err := reg.Build(ActionSpec{Kind: "shout", Prefix: ">> "})
	require.NoError(t, err)
	assert.Equal(t, []string{">> hi!"}, runAction(t, fn, model.Record{Payload: "hi"}))
	assert.Equal(t, []ActionKind{KindDrop, KindDump, KindEmit, KindRender, "shout"}, reg.Kinds())
}
