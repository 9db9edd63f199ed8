package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	settingsPath string
	rulesPath    string
	outputDir    string
	verbose      bool
)

// errAlreadyReported ends a command with a failing exit code once the reporter has shown
// the user what went wrong.
var errAlreadyReported = errors.New("already reported")

// RootCmd is the top-level command. Without a subcommand it opens the interactive agent.
var RootCmd = &cobra.Command{
	Use:           "bmad",
	Short:         "BMAD Master Agent: turn a project brief into planning documents",
	Long:          "Generates a PRD, user stories and test cases from a project brief with an LLM, saves them as markdown drafts and commits them to git.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&settingsPath, "config", "", "Settings file (default "+defaultSettingsPath+")")
	RootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "Role rules file (default "+defaultRulesPath+")")
	RootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "Drafts directory (default "+defaultOutputDir+")")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log workflow events at debug level")

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one document from a brief and save it as a draft",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}
	generateCmd.Flags().StringP("project", "p", "", "Project name")
	generateCmd.Flags().StringP("brief", "b", "", "Project brief")
	generateCmd.Flags().String("brief-file", "", "Read the project brief from a file")
	generateCmd.Flags().StringP("task", "t", "prd", "Task: prd, user_stories or test_cases")
	generateCmd.Flags().Bool("commit", false, "Commit the saved draft")
	generateCmd.MarkFlagsMutuallyExclusive("brief", "brief-file")

	commitCmd := &cobra.Command{
		Use:   "commit <file>",
		Short: "Stage and commit a single file",
		Args:  cobra.ExactArgs(1),
		RunE:  runCommit,
	}
	commitCmd.Flags().StringP("message", "m", "", "Commit message (default \"docs: update <file>\")")

	draftsCmd := &cobra.Command{
		Use:   "drafts",
		Short: "List the drafts in the output directory",
		Args:  cobra.NoArgs,
		RunE:  runDrafts,
	}

	remoteCmd := &cobra.Command{
		Use:   "remote",
		Short: "Compare the current branch with the remote default branch",
		Args:  cobra.NoArgs,
		RunE:  runRemote,
	}

	RootCmd.AddCommand(generateCmd, commitCmd, draftsCmd, remoteCmd)
}

// session is what every command needs before it can do its work.
type session struct {
	cfg      *Config
	settings Settings
	logger   *slog.Logger
	reporter Reporter
}

// setup loads .env, the environment config and the settings file. A missing settings file
// is only a warning, a broken one is fatal.
func setup(logOut io.Writer, reporter Reporter) (*session, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("bmad: load .env: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if settingsPath != "" {
		cfg.SettingsPath = settingsPath
	}
	if rulesPath != "" {
		cfg.RulesPath = rulesPath
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	cfg.Verbose = verbose

	logger := newLogger(logOut, cfg.Verbose)

	settings, err := loadSettings(cfg.SettingsPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		reporter.Warn(fmt.Sprintf(MsgConfigMissing, cfg.SettingsPath))
	case err != nil:
		return nil, fmt.Errorf("bmad: %w", err)
	default:
		logger.Debug(fmt.Sprintf(MsgConfigLoaded, cfg.SettingsPath, len(settings)), "keys", settings.Keys())
	}

	return &session{cfg: cfg, settings: settings, logger: logger, reporter: reporter}, nil
}

func (s *session) workflow(llm LLMProvider) *Workflow {
	var generator *ContentGenerator
	if llm != nil {
		generator = NewContentGenerator(llm, s.cfg.RulesPath)
	}
	return NewWorkflow(generator, s.cfg.OutputDir, s.reporter, WithObserver(newSlogObserver(s.logger)))
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name, _ := cmd.Flags().GetString("project")
	brief, _ := cmd.Flags().GetString("brief")
	briefFile, _ := cmd.Flags().GetString("brief-file")
	taskName, _ := cmd.Flags().GetString("task")
	commit, _ := cmd.Flags().GetBool("commit")

	task, err := lookupTask(taskName)
	if err != nil {
		return err
	}
	if briefFile != "" {
		data, err := os.ReadFile(briefFile)
		if err != nil {
			return fmt.Errorf("read brief: %w", err)
		}
		brief = string(data)
	}

	reporter := cliReporter{w: cmd.ErrOrStderr()}
	s, err := setup(cmd.ErrOrStderr(), reporter)
	if err != nil {
		return err
	}
	llm, err := pickLLM(ctx, s.cfg)
	if err != nil {
		return err
	}

	wf := s.workflow(llm)
	project := Project{Name: name, Brief: brief}

	fmt.Fprintf(cmd.ErrOrStderr(), MsgGenerating+"\n", task.Label, llm.Name(), llm.Model())
	path, err := wf.RunTask(ctx, project, task)
	if err != nil {
		reporter.Error(userMessage(err))
		return errAlreadyReported
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read draft: %w", err)
	}
	rendered, err := renderMarkdown(string(content), 0)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), rendered)

	if commit && !wf.CommitDraft(ctx, path, fmt.Sprintf(MsgAutoCommit, project.Name, task.Label)) {
		return errAlreadyReported
	}
	return nil
}

func runCommit(cmd *cobra.Command, args []string) error {
	path := args[0]
	message, _ := cmd.Flags().GetString("message")
	if message == "" {
		message = fmt.Sprintf(defaultCommitMessage, filepath.Base(path))
	}

	s, err := setup(cmd.ErrOrStderr(), cliReporter{w: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}

	if !s.workflow(nil).CommitDraft(cmd.Context(), path, message) {
		return errAlreadyReported
	}
	return nil
}

func runDrafts(cmd *cobra.Command, args []string) error {
	s, err := setup(cmd.ErrOrStderr(), cliReporter{w: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}

	names, err := listDrafts(s.cfg.OutputDir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), MsgNoDrafts)
		return nil
	}
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "📄 %s\n", name)
	}
	return nil
}

func runRemote(cmd *cobra.Command, args []string) error {
	s, err := setup(cmd.ErrOrStderr(), cliReporter{w: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}

	repo, err := discoverRepo(".")
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.ErrOrStderr(), MsgCheckingRemote)
	status, err := NewRemoteInspector(repo.Root, s.cfg, cmd.ErrOrStderr()).BranchStatus(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), status)
	return nil
}
