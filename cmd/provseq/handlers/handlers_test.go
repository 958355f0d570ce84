package handlers

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/imamik/provseq/internal/config"
	"github.com/imamik/provseq/internal/executor"
)

const chainDefinition = `name: chain
variables:
  resource_group: synai-demo-rg
credentials:
  - name: registry_password
steps:
  - name: A
    command: az group create -n ${resource_group}
    outputs: [x]
  - name: C
    command: az touch ${y} --password ${registry_password}
  - name: B
    command: az calc ${x}
    outputs:
      - name: y
        rule: lastLine
`

// fakeRunner answers az commands by their first argument after "az".
type fakeRunner struct {
	mu      sync.Mutex
	failC   bool
	calls   []string
	results map[string]executor.Result
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{results: map[string]executor.Result{
		"group": {Stdout: "5\n"},
		"calc":  {Stdout: "calculating\n10\n"},
		"touch": {},
	}}
}

func (f *fakeRunner) Run(_ context.Context, cmd executor.Command) (executor.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, strings.Join(cmd.Args, " "))
	if cmd.Args[1] == "touch" && f.failC {
		return executor.Result{ExitCode: 2, Stderr: "boom: share not ready"}, nil
	}
	return f.results[cmd.Args[1]], nil
}

func (f *fakeRunner) called(sub string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, "az "+sub) {
			n++
		}
	}
	return n
}

// testEnv wires the handlers to a temp state directory, a fake runner and a
// fake environment.
type testEnv struct {
	dir    string
	state  string
	runner *fakeRunner
	env    map[string]string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	saveAndRestoreFactories(t)

	dir := t.TempDir()
	e := &testEnv{
		dir:    dir,
		state:  filepath.Join(dir, "runs"),
		runner: newFakeRunner(),
		env:    map[string]string{"REGISTRY_PASSWORD": "s3cret"},
	}

	loadSettings = func() *config.Settings {
		return &config.Settings{
			State:                  e.state,
			StoreRetryMaxAttempts:  1,
			StoreRetryInitialDelay: time.Millisecond,
		}
	}
	newRunner = func() executor.Runner { return e.runner }
	lookupEnv = func(key string) (string, bool) {
		v, ok := e.env[key]
		return v, ok
	}
	findDefinitionFile = func() (string, error) {
		return "", os.ErrNotExist
	}
	isTerminal = func() bool { return false }
	return e
}

func (e *testEnv) writeDefinition(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func saveAndRestoreFactories(t *testing.T) {
	t.Helper()
	origLoadSettings := loadSettings
	origOpenStore := openStore
	origNewRunner := newRunner
	origLookupEnv := lookupEnv
	origFindDefinitionFile := findDefinitionFile
	origLoadDefinition := loadDefinition
	origRunDashboard := runDashboard
	origIsTerminal := isTerminal
	origNewConsoleObserver := newConsoleObserver
	origFileExists := fileExists
	origConfirmOverwrite := confirmOverwrite
	origRunWizard := runWizard
	origWriteDefinition := writeDefinition
	origCheckTools := checkTools
	origNewAzureChecker := newAzureChecker
	origNow := now

	t.Cleanup(func() {
		loadSettings = origLoadSettings
		openStore = origOpenStore
		newRunner = origNewRunner
		lookupEnv = origLookupEnv
		findDefinitionFile = origFindDefinitionFile
		loadDefinition = origLoadDefinition
		runDashboard = origRunDashboard
		isTerminal = origIsTerminal
		newConsoleObserver = origNewConsoleObserver
		fileExists = origFileExists
		confirmOverwrite = origConfirmOverwrite
		runWizard = origRunWizard
		writeDefinition = origWriteDefinition
		checkTools = origCheckTools
		newAzureChecker = origNewAzureChecker
		now = origNow
	})
}

func captureOutput(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	f()

	w.Close()
	os.Stdout = old
	return <-done
}
