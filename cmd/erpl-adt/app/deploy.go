package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/client"
	"github.com/erpl/erpl-adt/pkg/adt/session"
	"github.com/erpl/erpl-adt/pkg/adt/types"
	"github.com/erpl/erpl-adt/pkg/deploy"
	"github.com/erpl/erpl-adt/pkg/logger"
)

func newDeployCmd() *cobra.Command {
	var configPath string
	var repoURL, repoPackage, repoBranch string
	var noActivate bool

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy abapGit repositories from a YAML configuration",
		Long: `Run the Package -> Clone -> Pull -> Activate pipeline for every repo
in the configuration, in dependency order. With --url a single repo is
deployed without a configuration file.`,
		Example: `  erpl-adt deploy --config deploy.yaml
  erpl-adt deploy --url https://github.com/acme/core.git --package ZCORE`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadDeployConfig(configPath, repoURL, repoPackage, repoBranch, noActivate)
			if err != nil {
				return err
			}
			closeLog, err := applyDeployLogging(cfg)
			if err != nil {
				return err
			}
			defer closeLog()
			adtClient, err := clientFromDeployConfig(cfg)
			if err != nil {
				return err
			}
			result, err := deploy.NewOrchestrator(adtClient).Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if flagJSON || cfg.JSONOutput {
				if err := printJSON(result); err != nil {
					return err
				}
			} else {
				renderDeployResult(result)
			}
			if !result.Success {
				return aerr.New(aerr.KindInternal, "Deploy", result.Summary)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "deploy.yaml", "Deployment configuration file")
	cmd.Flags().StringVar(&repoURL, "url", "", "Single-repo mode: repository URL")
	cmd.Flags().StringVar(&repoPackage, "package", "", "Single-repo mode: target package")
	cmd.Flags().StringVar(&repoBranch, "branch", "", "Single-repo mode: branch reference")
	cmd.Flags().BoolVar(&noActivate, "no-activate", false, "Single-repo mode: skip activation")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List the abapGit repositories linked in the system",
		RunE: func(cmd *cobra.Command, _ []string) error {
			adtClient, err := newClient()
			if err != nil {
				return err
			}
			repos, err := adtClient.ListRepos(cmd.Context())
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(map[string]any{"repos": repos})
			}
			if len(repos) == 0 {
				fmt.Println("No abapGit repositories linked.")
				return nil
			}
			rows := make([][]string, 0, len(repos))
			for _, r := range repos {
				rows = append(rows, []string{r.Key, r.Package, string(r.Status), r.BranchName, r.URL})
			}
			return renderTable([]string{"Key", "Package", "Status", "Branch", "URL"}, rows)
		},
	}
}

func newPullCmd() *cobra.Command {
	var repoURL, repoKey string

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Pull an abapGit repository",
		RunE: func(cmd *cobra.Command, _ []string) error {
			adtClient, err := newClient()
			if err != nil {
				return err
			}
			key := repoKey
			if key == "" {
				url, err := types.NewRepoUrl(repoURL)
				if err != nil {
					return err
				}
				repo, err := adtClient.FindRepoByURL(cmd.Context(), url)
				if err != nil {
					return err
				}
				if repo == nil {
					return aerr.New(aerr.KindNotFound, "PullRepo",
						fmt.Sprintf("repository %s is not linked", repoURL))
				}
				key = repo.Key
			}
			if err := adtClient.PullRepo(cmd.Context(), types.RepoKey(key)); err != nil {
				return err
			}
			if flagJSON {
				return printJSON(map[string]any{"status": "pulled", "key": key})
			}
			fmt.Println(styled(okStyle, "Pulled ") + "key:" + key)
			return nil
		},
	}
	cmd.Flags().StringVar(&repoURL, "url", "", "Repository URL")
	cmd.Flags().StringVar(&repoKey, "key", "", "Repository key (skips the URL lookup)")
	cmd.MarkFlagsOneRequired("url", "key")
	return cmd
}

func newActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate",
		Short: "Activate all inactive objects",
		RunE: func(cmd *cobra.Command, _ []string) error {
			adtClient, err := newClient()
			if err != nil {
				return err
			}
			result, inactive, err := adtClient.ActivateInactive(cmd.Context())
			if err != nil {
				return err
			}
			if result == nil {
				if flagJSON {
					return printJSON(map[string]any{"status": "nothing to activate"})
				}
				fmt.Println("No inactive objects.")
				return nil
			}
			if flagJSON {
				if err := printJSON(map[string]any{"result": result, "objects": inactive}); err != nil {
					return err
				}
			} else {
				fmt.Printf("%d activated, %d failed\n", result.Activated, result.Failed)
				for _, m := range result.Messages {
					fmt.Printf("  [%s] %s\n", m.Severity, m.ShortText)
				}
			}
			if result.Failed > 0 {
				return aerr.New(aerr.KindActivationError, "Activate",
					fmt.Sprintf("%d objects failed to activate", result.Failed))
			}
			return nil
		},
	}
}

func loadDeployConfig(path, repoURL, repoPackage, repoBranch string, noActivate bool) (*deploy.AppConfig, error) {
	var cfg *deploy.AppConfig
	if repoURL != "" {
		cfg = &deploy.AppConfig{}
	} else {
		loaded, err := deploy.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overrides := deploy.Overrides{
		Host:        flagHost,
		Port:        flagPort,
		Client:      flagClient,
		User:        flagUser,
		Password:    flagPassword,
		PasswordEnv: flagPasswordEnv,
		Timeout:     flagTimeout,
		URL:         repoURL,
		Package:     repoPackage,
		Branch:      repoBranch,
	}
	if flagHTTPS {
		https := true
		overrides.HTTPS = &https
	}
	if flagVerbose {
		verbose := true
		overrides.Verbose = &verbose
	}
	if flagQuiet {
		quiet := true
		overrides.Quiet = &quiet
	}
	if noActivate {
		activate := false
		overrides.Activate = &activate
	}
	cfg.Apply(overrides)

	if err := cfg.ResolvePassword(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDeployLogging re-levels the logger from the merged config and tees
// it into log_file when one is configured.
func applyDeployLogging(cfg *deploy.AppConfig) (func(), error) {
	viper.Set("verbose", cfg.Verbose)
	viper.Set("quiet", cfg.Quiet)
	if cfg.LogFile == "" {
		logger.Initialize()
		return func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, aerr.Wrap(aerr.KindInternal, "Deploy", fmt.Sprintf("opening %s", cfg.LogFile), err)
	}
	logger.InitializeWithWriter(io.MultiWriter(os.Stderr, f))
	return func() { _ = f.Close() }, nil
}

func clientFromDeployConfig(cfg *deploy.AppConfig) (*client.Client, error) {
	sapClient, err := types.NewSapClient(cfg.Connection.Client)
	if err != nil {
		return nil, err
	}
	sess := session.New(session.Config{
		Host:     cfg.Connection.Host,
		Port:     cfg.Connection.Port,
		UseHTTPS: cfg.Connection.HTTPS,
		Insecure: flagInsecure,
		Client:   sapClient,
		User:     cfg.Connection.User,
		Password: cfg.Connection.Password,
		Timeout:  cfg.Timeout(),
	})
	return client.New(sess, client.WithAsyncTimeout(cfg.Timeout())), nil
}

func renderDeployResult(result *deploy.Result) {
	for _, repo := range result.Repos {
		marker := styled(okStyle, "ok  ")
		if !repo.Success {
			marker = styled(errorStyle, "FAIL")
		}
		fmt.Printf("%s %s\n", marker, repo.Repo)
		for _, step := range repo.Steps {
			line := fmt.Sprintf("  %-8s %-9s", step.Name, string(step.Status))
			if step.Message != "" {
				line += " " + step.Message
			}
			line += fmt.Sprintf(" (%s)", time.Duration(step.ElapsedMs)*time.Millisecond)
			fmt.Println(line)
		}
	}
	summary := result.Summary
	if result.Success {
		summary = styled(okStyle, summary)
	} else {
		summary = styled(errorStyle, summary)
	}
	fmt.Println(summary)
}
