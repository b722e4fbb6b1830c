package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"transmile/internal/app"
	"transmile/internal/config"
	"transmile/internal/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, past, past))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// createProject lays out a source tree importing a library found through the
// module search variable.
func createProject(t *testing.T, root string) (src, lib string) {
	src = filepath.Join(root, "src")
	lib = filepath.Join(root, "vendor")

	writeFile(t, filepath.Join(lib, "queue.sigb"), "signature QUEUE = sig end\n")
	writeFile(t, filepath.Join(src, "stack.funb"), `export functor Stack
(* +++ *)
functor Stack () = struct end
`)
	writeFile(t, filepath.Join(src, "main.smlb"), `import $(SML_LIB)/basis/basis.mlb
import stack.funb
import (signature QUEUE) from queue.sigb
export structure Main
(* +++ *)
structure Main = struct end
`)
	writeFile(t, filepath.Join(src, "README.md"), "# demo\n")
	return src, lib
}

func TestFullPipelineIntegration(t *testing.T) {
	root := t.TempDir()
	src, lib := createProject(t, root)
	out := filepath.Join(root, "build")
	t.Setenv("SMLPATH", lib)

	cfg := config.Default()
	cfg.Source = src
	cfg.OutDir = out
	require.NoError(t, config.Validate(cfg))

	store, err := history.Open(filepath.Join(root, "history.db"))
	require.NoError(t, err)
	defer store.Close()

	appInstance, err := app.New(cfg, app.WithHistory(store))
	require.NoError(t, err)

	report, err := appInstance.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count(app.StatusTranspiled))
	assert.Equal(t, 1, report.Count(app.StatusCopied))

	mlb := readFile(t, filepath.Join(out, "main.sml.mlb"))
	assert.Equal(t, `local
  local
    basis b0 = bas (*#line 1.8 "../src/main.smlb"*)"$(SML_LIB)/basis/basis.mlb" end
    basis u0 = bas (*#line 2.8 "../src/main.smlb"*)"stack.fun.mlb" end
    basis f0 =
      let
        (*#line 3.31 "../src/main.smlb"*)"../vendor/queue.sig.mlb"
      in
        bas
          (*#line 3.9 "../src/main.smlb"*)signature QUEUE
        end
      end
    open b0 u0 f0
  in
    main.sml
  end
in
  (*#line 4.8 "../src/main.smlb"*)structure Main
end
`, mlb)

	assert.Equal(t, `(*#line 6.1 "../src/main.smlb"*)structure Main = struct end`+"\n", readFile(t, filepath.Join(out, "main.sml")))
	assert.True(t, strings.HasSuffix(readFile(t, filepath.Join(out, "stack.fun.mlb")), "(*#line 1.8 \"../src/stack.funb\"*)functor Stack\nend\n"))
	assert.Equal(t, "# demo\n", readFile(t, filepath.Join(out, "README.md")))

	// A second pass finds nothing to do and is journaled as well.
	again, err := appInstance.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, again.Count(app.StatusFresh))

	runs, err := store.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	stats := history.Summarize(runs)
	assert.Equal(t, 2, stats.FilesBuilt)
	assert.Zero(t, stats.FailedRuns)
}

func TestWatchRebuildIntegration(t *testing.T) {
	root := t.TempDir()
	src, lib := createProject(t, root)
	out := filepath.Join(root, "build")
	t.Setenv("SMLPATH", lib)

	cfg := config.Default()
	cfg.Source = src
	cfg.OutDir = out
	cfg.Watch.Debounce = 50 * time.Millisecond
	cfg.Watch.Rate = 100
	cfg.Watch.Burst = 10

	appInstance, err := app.New(cfg)
	require.NoError(t, err)
	_, err = appInstance.Run(context.Background())
	require.NoError(t, err)

	updates := make(chan app.Update, 10)
	appInstance.SetUpdateHandler(func(u app.Update) { updates <- u })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w, err := appInstance.StartWatcher(ctx)
	require.NoError(t, err)
	defer w.Close()

	added := filepath.Join(src, "extra.sigb")
	require.NoError(t, os.WriteFile(added, []byte("signature EXTRA = sig end\n"), 0o644))

	deadline := time.After(3 * time.Second)
	for {
		select {
		case u := <-updates:
			require.NotNil(t, u.Report)
			if u.Report.Count(app.StatusTranspiled) == 0 {
				continue
			}
			assert.FileExists(t, filepath.Join(out, "extra.sig"))
			assert.FileExists(t, filepath.Join(out, "extra.sig.mlb"))
			return
		case <-deadline:
			t.Fatal("timed out waiting for rebuild")
		}
	}
}
