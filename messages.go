package main

import "fmt"

const (
	MsgConfigMissing     = "Config not found at %s."
	MsgConfigLoaded      = "bmad: Loaded config from %s (%d keys)"
	MsgEmptyBrief        = "Please provide a project brief!"
	MsgEmptyRequest      = "Please type a request after /CH."
	MsgGenerating        = "🧙 bmad: Generating %s with %s provider using '%s'..."
	MsgChatting          = "🧙 bmad: Asking %s provider using '%s'..."
	MsgFileSaved         = "File saved: %s"
	MsgGitError          = "Git Automation Error: %v"
	MsgCommitted         = "✅ Committed %s using Git CLI wrapper."
	MsgNoPRDToCommit     = "No PRD file found to commit."
	MsgNoDrafts          = "No drafts yet."
	MsgAutoCommit        = "feat: Automated commit of %s %s"
	MsgNotPushed         = "Local branch has not been pushed to the remote."
	MsgFetchingGithub    = "    - \uF09B     Fetching info from GitHub: %s"
	MsgFetchingGitlab    = "    - \ue65c     Fetching info from GitLab: %s"
	MsgCheckingRemote    = "✈️  bmad: Checking remote status..."
	chatTrigger          = "/CH"
	commitIntentKeyword  = "commit"
	defaultCommitMessage = "docs: update %s"
)

func buildRemoteInfoMsg(providerName string, commandName string) string {
	switch providerName {
	case "github":
		if commandName == "branch_exists" {
			return fmt.Sprintf(MsgFetchingGithub, "Checking branch on origin...")
		}
		if commandName == "branch_status" {
			return fmt.Sprintf(MsgFetchingGithub, "Comparing current branch to upstream...")
		}
	case "gitlab":
		if commandName == "branch_exists" {
			return fmt.Sprintf(MsgFetchingGitlab, "Checking branch on origin...")
		}
		if commandName == "branch_status" {
			return fmt.Sprintf(MsgFetchingGitlab, "Comparing current branch to upstream...")
		}
	default:
		return fmt.Sprintf("Unexpected git provider: %s", providerName)
	}
	return fmt.Sprintf("Unexpected command: %s", commandName)
}
