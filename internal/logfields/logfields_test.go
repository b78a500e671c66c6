package logfields

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"BuildID", BuildID("b1"), KeyBuildID, "b1"},
		{"Page", Page("api/index"), KeyPage, "api/index"},
		{"Package", Package("flame"), KeyPackage, "flame"},
		{"Symbol", Symbol("Component"), KeySymbol, "Component"},
		{"Source", Source("/src/a.dart"), KeySource, "/src/a.dart"},
		{"Command", Command("dart run"), KeyCommand, "dart run"},
		{"Target", Target("Foo-bar"), KeyTarget, "Foo-bar"},
		{"Stage", Stage("read"), KeyStage, "read"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.wantKey, tc.attr.Key)
			require.Equal(t, tc.wantVal, tc.attr.Value.String())
		})
	}
}

func TestNumericAndErrorHelpers(t *testing.T) {
	require.Equal(t, int64(3), Worker(3).Value.Int64())
	require.Equal(t, int64(7), Count(7).Value.Int64())
	require.InDelta(t, 1.5, DurationMS(1.5).Value.Float64(), 0.0001)
	require.Equal(t, "", Error(nil).Value.String())
	require.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}
