package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/erpl/erpl-adt/pkg/adt/codec"
	"github.com/erpl/erpl-adt/pkg/adt/types"
	"github.com/erpl/erpl-adt/pkg/logger"
)

// StepStatus is the outcome of one pipeline step.
type StepStatus string

// Step outcomes.
const (
	StepCompleted StepStatus = "Completed"
	StepSkipped   StepStatus = "Skipped"
	StepFailed    StepStatus = "Failed"
)

// Step names.
const (
	StepPackage  = "package"
	StepClone    = "clone"
	StepPull     = "pull"
	StepActivate = "activate"
)

// StepResult is one executed (or skipped) step of a repo deployment.
type StepResult struct {
	Name      string     `json:"name"`
	Status    StepStatus `json:"status"`
	Message   string     `json:"message,omitempty"`
	ElapsedMs int64      `json:"elapsed_ms"`
}

// RepoResult is the outcome of one repo's pipeline.
type RepoResult struct {
	Repo    string       `json:"repo"`
	Success bool         `json:"success"`
	Steps   []StepResult `json:"steps"`
}

// Result is the outcome of a whole deployment run.
type Result struct {
	Success   bool         `json:"success"`
	Summary   string       `json:"summary"`
	Repos     []RepoResult `json:"repos"`
	ElapsedMs int64        `json:"elapsed_ms"`
}

// Operations is the slice of the ADT client the orchestrator drives.
// *client.Client satisfies it.
type Operations interface {
	Discover(ctx context.Context) (*codec.DiscoveryInfo, error)
	EnsurePackage(ctx context.Context, pkg types.PackageName, description string) (bool, error)
	FindRepoByURL(ctx context.Context, repoURL types.RepoUrl) (*codec.RepoInfo, error)
	CloneRepo(ctx context.Context, pkg types.PackageName, repoURL types.RepoUrl, branch types.BranchRef) (*codec.RepoInfo, error)
	PullRepo(ctx context.Context, key types.RepoKey) error
	ListInactiveObjects(ctx context.Context) ([]codec.ObjectRef, error)
	ActivateInactive(ctx context.Context) (*codec.ActivationResult, []codec.ObjectRef, error)
}

// Orchestrator executes the deploy pipeline over a validated config.
type Orchestrator struct {
	ops Operations
}

// NewOrchestrator builds an orchestrator over the given operations.
func NewOrchestrator(ops Operations) *Orchestrator {
	return &Orchestrator{ops: ops}
}

// Run executes discovery once, then Package -> Clone -> Pull -> Activate
// for each repo in order. A failed step stops its repo; repos fail
// independently of each other.
func (o *Orchestrator) Run(ctx context.Context, cfg *AppConfig) (*Result, error) {
	start := time.Now()

	if _, err := o.ops.Discover(ctx); err != nil {
		return nil, err
	}

	result := &Result{Success: true}
	succeeded, failed := 0, 0
	for _, repo := range cfg.Repos {
		repoResult := o.deployRepo(ctx, repo)
		result.Repos = append(result.Repos, repoResult)
		if repoResult.Success {
			succeeded++
		} else {
			failed++
			result.Success = false
		}
	}
	result.Summary = fmt.Sprintf("%d succeeded, %d failed", succeeded, failed)
	result.ElapsedMs = time.Since(start).Milliseconds()
	logger.Infof("deploy finished: %s in %dms", result.Summary, result.ElapsedMs)
	return result, nil
}

// step runs fn, timing it, and appends the outcome. A Failed status marks
// the repo as failed and stops its pipeline.
func runStep(repoResult *RepoResult, name string, fn func() (StepStatus, string)) bool {
	start := time.Now()
	status, message := fn()
	repoResult.Steps = append(repoResult.Steps, StepResult{
		Name:      name,
		Status:    status,
		Message:   message,
		ElapsedMs: time.Since(start).Milliseconds(),
	})
	if status == StepFailed {
		repoResult.Success = false
		return false
	}
	return true
}

func (o *Orchestrator) deployRepo(ctx context.Context, repo RepoConfig) RepoResult {
	repoResult := RepoResult{Repo: repo.Name, Success: true}
	logger.Infof("deploying %s (%s -> %s)", repo.Name, repo.URL, repo.Package)

	pkg, err := types.NewPackageName(repo.Package)
	if err != nil {
		repoResult.Success = false
		repoResult.Steps = append(repoResult.Steps, StepResult{
			Name: StepPackage, Status: StepFailed, Message: err.Error(),
		})
		return repoResult
	}
	repoURL, err := types.NewRepoUrl(repo.URL)
	if err != nil {
		repoResult.Success = false
		repoResult.Steps = append(repoResult.Steps, StepResult{
			Name: StepClone, Status: StepFailed, Message: err.Error(),
		})
		return repoResult
	}

	if !runStep(&repoResult, StepPackage, func() (StepStatus, string) {
		created, err := o.ops.EnsurePackage(ctx, pkg, "abapGit deployment "+repo.Name)
		if err != nil {
			return StepFailed, err.Error()
		}
		if !created {
			return StepCompleted, "package already exists"
		}
		return StepCompleted, ""
	}) {
		return repoResult
	}

	var repoKey types.RepoKey
	if !runStep(&repoResult, StepClone, func() (StepStatus, string) {
		existing, err := o.ops.FindRepoByURL(ctx, repoURL)
		if err != nil {
			return StepFailed, err.Error()
		}
		if existing != nil {
			repoKey = types.RepoKey(existing.Key)
			return StepSkipped, "already linked, key:" + existing.Key
		}
		branch := types.DefaultBranch
		if repo.Branch != "" {
			branch = types.BranchRef(repo.Branch)
		}
		cloned, err := o.ops.CloneRepo(ctx, pkg, repoURL, branch)
		if err != nil {
			return StepFailed, err.Error()
		}
		repoKey = types.RepoKey(cloned.Key)
		return StepCompleted, "key:" + cloned.Key
	}) {
		return repoResult
	}

	if !runStep(&repoResult, StepPull, func() (StepStatus, string) {
		if err := o.ops.PullRepo(ctx, repoKey); err != nil {
			return StepFailed, err.Error()
		}
		return StepCompleted, ""
	}) {
		return repoResult
	}

	runStep(&repoResult, StepActivate, func() (StepStatus, string) {
		if !repo.ShouldActivate() {
			return StepSkipped, "activation disabled"
		}
		inactive, err := o.ops.ListInactiveObjects(ctx)
		if err != nil {
			return StepFailed, err.Error()
		}
		if len(inactive) == 0 {
			return StepSkipped, "no inactive objects"
		}
		activation, _, err := o.ops.ActivateInactive(ctx)
		if err != nil {
			return StepFailed, err.Error()
		}
		if activation.Failed > 0 {
			return StepFailed, fmt.Sprintf("%d of %d objects failed to activate",
				activation.Failed, activation.Activated+activation.Failed)
		}
		return StepCompleted, fmt.Sprintf("%d objects activated", activation.Activated)
	})
	return repoResult
}
