package suggest

import (
	"fmt"

	"github.com/aidebug/aidebug/internal/gitctx"
	"github.com/aidebug/aidebug/internal/providers"
	"github.com/aidebug/aidebug/internal/workspace"
)

var systemPrompts = map[Mode]string{
	ModeDebug:   "You are a AI coding assistant. That debugs and fixes code. Make sure to explain every error and mistake in the code that you find and fix.",
	ModeFeature: "You are a AI coding assistant. Upon request you improve code, create features and refactor code.",
	ModeReadme:  "You are a AI Code Documentation Creator. You Create & Update README files for the projects Github page.",
}

// SystemPrompt returns the system prompt for mode.
func SystemPrompt(mode Mode) string {
	if p, ok := systemPrompts[mode]; ok {
		return p
	}
	return systemPrompts[ModeDebug]
}

// PromptContext is the project context added before the codebase.
type PromptContext struct {
	Summary string
	Repo    *gitctx.RepoMeta
}

// BuildMessages assembles the conversation for req: the system prompt, the
// project description, the codebase with one message per file and finally
// the request itself.
func BuildMessages(req Request, pc PromptContext, files []workspace.File) []providers.Message {
	msgs := []providers.Message{{Role: "system", Content: SystemPrompt(req.Mode)}}
	user := func(s string) {
		msgs = append(msgs, providers.Message{Role: "user", Content: s})
	}

	if pc.Summary != "" {
		user(pc.Summary)
	}
	if pc.Repo != nil && pc.Repo.Head != "" {
		if pc.Repo.Branch != "" {
			user(fmt.Sprintf("The code is in a git repository on branch %s at commit %s.", pc.Repo.Branch, shortHash(pc.Repo.Head)))
		} else {
			user(fmt.Sprintf("The code is in a git repository at commit %s.", shortHash(pc.Repo.Head)))
		}
	}

	if req.Mode == ModeReadme {
		user("Here is the relevant codebase, if there are any new features you should add them to the current README.md:")
	} else {
		user("Here is the relevant codebase:")
	}
	for _, f := range files {
		user(fmt.Sprintf("File: %s Content: %s", f.Path, f.Content))
	}

	switch req.Mode {
	case ModeFeature:
		user("Programmer's Request: " + req.Query)
	case ModeReadme:
		if req.Query != "" {
			user("User Request: " + req.Query)
		}
	default:
		user("This is the problem with the code: " + req.Query)
	}
	return msgs
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
