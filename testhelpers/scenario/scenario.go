// Package scenario provides a high-level test scenario that combines a Scene,
// an Engine, and a runtime Context to provide a terse API for engine tests.
package scenario

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"stackit.dev/stacks/internal/engine"
	"stackit.dev/stacks/internal/git"
	"stackit.dev/stacks/internal/runtime"
	"stackit.dev/stacks/internal/stack"
	"stackit.dev/stacks/internal/tui"
	"stackit.dev/stacks/testhelpers"
)

// Push is one call made to a RecordingPusher
type Push struct {
	Remote   string
	Refspecs []string
	Force    bool
}

// RecordingPusher records pushes instead of talking to a remote
type RecordingPusher struct {
	mu     sync.Mutex
	Pushes []Push
	// Err, when set, is returned from every push
	Err error
}

// PushRefs records the push
func (p *RecordingPusher) PushRefs(_ context.Context, remote string, refspecs []string, force bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Pushes = append(p.Pushes, Push{Remote: remote, Refspecs: refspecs, Force: force})
	return nil
}

// Last returns the most recent push
func (p *RecordingPusher) Last() Push {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Pushes) == 0 {
		return Push{}
	}
	return p.Pushes[len(p.Pushes)-1]
}

// Scenario represents a high-level test scenario that combines a Scene,
// an Engine, and a runtime Context to provide a terse API for engine tests.
type Scenario struct {
	T       *testing.T
	Scene   *testhelpers.Scene
	Engine  *engine.Engine
	Context *runtime.Context
	Pusher  *RecordingPusher

	mu    sync.Mutex
	clock time.Time
}

// NewScenario creates a new Scenario. A nil setup uses BasicSceneSetup.
// NOTE: This function is NOT safe for parallel tests as it uses t.Setenv.
func NewScenario(t *testing.T, setup testhelpers.SceneSetup) *Scenario {
	t.Helper()

	// Force non-interactive mode for tests
	t.Setenv("STACKS_TEST_NO_INTERACTIVE", "true")

	if setup == nil {
		setup = testhelpers.BasicSceneSetup
	}
	scene := testhelpers.NewScene(t, setup)

	s := &Scenario{
		T:      t,
		Scene:  scene,
		Pusher: &RecordingPusher{},
		clock:  time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC),
	}

	splog, err := tui.NewSplogWithWriter(io.Discard, tui.LogFileOptions{})
	require.NoError(t, err)

	s.Engine = engine.New(scene.Repo.Repository, engine.Options{
		Splog:  splog,
		Pusher: s.Pusher,
		Now:    s.now,
	})
	s.Context = runtime.NewContext(s.Engine, splog)
	return s
}

// now is a deterministic clock that advances one second per call
func (s *Scenario) now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// Repo returns the scene's repository
func (s *Scenario) Repo() *testhelpers.GitRepo {
	return s.Scene.Repo
}

// WithDefaultTarget sets origin/main as the default target
func (s *Scenario) WithDefaultTarget() *Scenario {
	s.T.Helper()
	_, err := s.Engine.SetDefaultTarget(context.Background(), testhelpers.DefaultTargetRef)
	require.NoError(s.T, err)
	return s
}

// Base returns the recorded base of the default target
func (s *Scenario) Base() plumbing.Hash {
	s.T.Helper()
	target, err := s.Engine.Target()
	require.NoError(s.T, err)
	return target.Base
}

// WithStack creates a stack and commits one file per subject on it, oldest
// first. Each commit adds <subject>.txt.
func (s *Scenario) WithStack(name string, subjects ...string) *Scenario {
	s.T.Helper()
	s.CreateStack(name)
	for _, subject := range subjects {
		s.Commit(name, subject, map[string]string{subject + ".txt": subject + "\n"})
	}
	return s
}

// CreateStack creates an empty stack
func (s *Scenario) CreateStack(name string) *stack.Stack {
	s.T.Helper()
	st, err := s.Engine.CreateStack(context.Background(), name)
	require.NoError(s.T, err)
	return st
}

// Commit creates a commit on the named stack
func (s *Scenario) Commit(stackName, message string, files map[string]string) plumbing.Hash {
	s.T.Helper()
	changes := make([]git.FileChange, 0, len(files))
	for path, content := range files {
		changes = append(changes, git.FileChange{Path: path, Content: []byte(content)})
	}
	id, err := s.Engine.CreateCommit(context.Background(), s.Stack(stackName).ID, message, changes)
	require.NoError(s.T, err)
	return id
}

// Stack loads the named stack
func (s *Scenario) Stack(name string) *stack.Stack {
	s.T.Helper()
	st, err := s.Engine.Store().FindByName(name)
	require.NoError(s.T, err)
	return st
}

// Commits lists the named stack's commits, newest first
func (s *Scenario) Commits(name string) []*git.Commit {
	s.T.Helper()
	st := s.Stack(name)
	base, err := s.Repo().MergeBase(st.Head, s.Base())
	require.NoError(s.T, err)
	commits, err := s.Repo().LogUntil(st.Head, base)
	require.NoError(s.T, err)
	return commits
}

// CommitBySubject finds a commit in the named stack
func (s *Scenario) CommitBySubject(stackName, subject string) *git.Commit {
	s.T.Helper()
	for _, c := range s.Commits(stackName) {
		if c.Subject() == subject {
			return c
		}
	}
	s.T.Fatalf("no commit %q in stack %s", subject, stackName)
	return nil
}

// ExpectStack asserts the named stack's subjects, newest first
func (s *Scenario) ExpectStack(name string, subjects ...string) *Scenario {
	s.T.Helper()
	var actual []string
	for _, c := range s.Commits(name) {
		actual = append(actual, c.Subject())
	}
	if len(subjects) == 0 {
		require.Empty(s.T, actual, "stack %s", name)
		return s
	}
	require.Equal(s.T, subjects, actual, "stack %s", name)
	return s
}

// Push pushes the named stack through the recording pusher
func (s *Scenario) Push(name string) *Scenario {
	s.T.Helper()
	require.NoError(s.T, s.Engine.PushStack(context.Background(), s.Stack(name).ID))
	return s
}

// MergeIntoTarget merges the named stack's upstream into the default target
// ref, as if it was merged on the forge and then fetched
func (s *Scenario) MergeIntoTarget(name string) *Scenario {
	s.T.Helper()
	st := s.Stack(name)
	live, err := s.Repo().GetRef(testhelpers.DefaultTargetRef)
	require.NoError(s.T, err)
	merged, err := s.Repo().MergeCommit(live, st.UpstreamHead, "Merge branch "+name)
	require.NoError(s.T, err)
	require.NoError(s.T, s.Repo().UpdateRef(testhelpers.DefaultTargetRef, merged))
	return s
}

// AdvanceTarget commits files on the default target ref, as if upstream
// moved on and was fetched
func (s *Scenario) AdvanceTarget(message string, files map[string]string) plumbing.Hash {
	s.T.Helper()
	id, err := s.Repo().CommitFiles(testhelpers.DefaultTargetRef, message, files)
	require.NoError(s.T, err)
	return id
}
