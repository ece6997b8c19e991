package agent

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CoreTools returns the standard toolset in its canonical order.
func CoreTools() []Tool {
	return []Tool{
		ReadFile{},
		WriteFile{},
		EditFile{},
		ListFiles{},
		SearchCodebase{},
		RunCommand{},
		SaveMemory{},
		NewSearchWeb(),
	}
}

// skipDirs are directory names excluded from listing and searching.
var skipDirs = map[string]bool{
	".git":         true,
	"__pycache__":  true,
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// ReadFile returns file contents with line numbers.
type ReadFile struct{}

func (ReadFile) Name() string { return "read_file" }

func (ReadFile) Description() string {
	return "Reads a file from the filesystem. Use this to examine code."
}

func (ReadFile) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "The relative path to the file",
			},
		},
		"required": []string{"path"},
	}
}

func (ReadFile) Execute(_ ToolContext, args map[string]any) (string, error) {
	path := stringArg(args, "path")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	if len(data) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for i, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
		fmt.Fprintf(&sb, "%d | %s\n", i+1, line)
	}
	return sb.String(), nil
}

// WriteFile writes full file contents, gated by the permission mode. The
// PLAN.md basename is always writable so planning output has somewhere to
// go in plan mode.
type WriteFile struct{}

func (WriteFile) Name() string { return "write_file" }

func (WriteFile) Description() string {
	return "Writes content to a file. In plan mode, only PLAN.md is allowed."
}

func (WriteFile) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "The relative path to the file",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "The full content to write",
			},
		},
		"required": []string{"path", "content"},
	}
}

func (WriteFile) Execute(tc ToolContext, args map[string]any) (string, error) {
	path := stringArg(args, "path")
	content := stringArg(args, "content")

	if filepath.Base(path) == PlanFile {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return "", fmt.Errorf("saving plan: %w", err)
		}
		return "Plan saved successfully to " + PlanFile, nil
	}

	if tc.Mode == ModePlan {
		return fmt.Sprintf("BLOCKED: Cannot write to '%s' in plan mode. Write to '%s' instead.", path, PlanFile), nil
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return fmt.Sprintf("Successfully wrote %d characters to %s", len(content), path), nil
}

// EditFile replaces one exact text occurrence in a file, gated like
// WriteFile.
type EditFile struct{}

func (EditFile) Name() string { return "edit_file" }

func (EditFile) Description() string {
	return "Replaces an exact text occurrence in a file. In plan mode, only PLAN.md is allowed."
}

func (EditFile) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "The relative path to the file",
			},
			"old_string": map[string]any{
				"type":        "string",
				"description": "Exact text to find in the file",
			},
			"new_string": map[string]any{
				"type":        "string",
				"description": "Replacement text",
			},
		},
		"required": []string{"path", "old_string", "new_string"},
	}
}

func (EditFile) Execute(tc ToolContext, args map[string]any) (string, error) {
	path := stringArg(args, "path")
	oldText := stringArg(args, "old_string")
	newText := stringArg(args, "new_string")

	if tc.Mode == ModePlan && filepath.Base(path) != PlanFile {
		return fmt.Sprintf("BLOCKED: Cannot edit '%s' in plan mode.", path), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	if !strings.Contains(string(data), oldText) {
		return "", fmt.Errorf("could not find text to replace in %s", path)
	}
	replaced := strings.Replace(string(data), oldText, newText, 1)
	if err := os.WriteFile(path, []byte(replaced), 0o644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return fmt.Sprintf("Successfully replaced text in %s", path), nil
}

// ListFiles prints a directory tree, skipping VCS and dependency dirs.
type ListFiles struct{}

func (ListFiles) Name() string { return "list_files" }

func (ListFiles) Description() string {
	return "Lists files and directories as a tree. Use this to get an overview of the project layout."
}

func (ListFiles) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Directory to list. Defaults to the current directory.",
			},
		},
	}
}

func (ListFiles) Execute(_ ToolContext, args map[string]any) (string, error) {
	root := stringArg(args, "path")
	if root == "" {
		root = "."
	}

	var sb strings.Builder
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && skipDirs[d.Name()] {
			return filepath.SkipDir
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil || rel == "." {
			return nil
		}
		indent := strings.Repeat("  ", strings.Count(rel, string(os.PathSeparator)))
		name := d.Name()
		if d.IsDir() {
			name += "/"
		}
		fmt.Fprintf(&sb, "%s%s\n", indent, name)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("listing files: %w", err)
	}
	if sb.Len() == 0 {
		return "(empty directory)", nil
	}
	return sb.String(), nil
}

// SearchCodebase does a case-insensitive substring search across text
// files under a directory.
type SearchCodebase struct{}

const searchMatchLimit = 100

func (SearchCodebase) Name() string { return "search_codebase" }

func (SearchCodebase) Description() string {
	return "Searches for text across the codebase, case-insensitive. Returns file:line: matches."
}

func (SearchCodebase) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The text to search for",
			},
			"path": map[string]any{
				"type":        "string",
				"description": "Directory to search. Defaults to the current directory.",
			},
		},
		"required": []string{"query"},
	}
}

func (SearchCodebase) Execute(_ ToolContext, args map[string]any) (string, error) {
	query := stringArg(args, "query")
	root := stringArg(args, "path")
	if root == "" {
		root = "."
	}
	needle := strings.ToLower(query)

	var sb strings.Builder
	matches := 0
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if matches >= searchMatchLimit {
			return fs.SkipAll
		}
		data, readErr := os.ReadFile(p)
		if readErr != nil || bytes.IndexByte(data, 0) >= 0 {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			rel = p
		}
		for i, line := range strings.Split(string(data), "\n") {
			if strings.Contains(strings.ToLower(line), needle) {
				fmt.Fprintf(&sb, "%s:%d: %s\n", rel, i+1, strings.TrimSpace(line))
				matches++
				if matches >= searchMatchLimit {
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("searching codebase: %w", err)
	}
	if matches == 0 {
		return fmt.Sprintf("No matches found for '%s'", query), nil
	}
	if matches >= searchMatchLimit {
		fmt.Fprintf(&sb, "(results truncated at %d matches)\n", searchMatchLimit)
	}
	return sb.String(), nil
}

// RunCommand executes a shell command and captures its output. Blocked in
// plan mode. Execution is not preemptible: there is no timeout beyond the
// command's own behavior.
type RunCommand struct{}

func (RunCommand) Name() string { return "run_command" }

func (RunCommand) Description() string {
	return "Runs a shell command and returns STDOUT/STDERR. Use this to run tests and builds."
}

func (RunCommand) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The shell command to run",
			},
		},
		"required": []string{"command"},
	}
}

func (RunCommand) Execute(tc ToolContext, args map[string]any) (string, error) {
	command := stringArg(args, "command")

	if tc.Mode == ModePlan {
		return "BLOCKED: Cannot run commands in plan mode. Switch to act mode first.", nil
	}

	cmd := exec.Command("bash", "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	var sb strings.Builder
	fmt.Fprintf(&sb, "STDOUT:\n%s\nSTDERR:\n%s", stdout.String(), stderr.String())
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			fmt.Fprintf(&sb, "\nExit code: %d", exitErr.ExitCode())
		} else {
			return "", fmt.Errorf("running command: %w", runErr)
		}
	}
	return sb.String(), nil
}

// SaveMemory overwrites the agent's scratchpad. Allowed in both modes:
// memory is agent-internal state, not a workspace mutation.
type SaveMemory struct{}

func (SaveMemory) Name() string { return "save_memory" }

func (SaveMemory) Description() string {
	return "Updates your internal memory/scratchpad. Use this to remember user preferences."
}

func (SaveMemory) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": map[string]any{
				"type":        "string",
				"description": "The full text to save.",
			},
		},
		"required": []string{"content"},
	}
}

func (SaveMemory) Execute(tc ToolContext, args map[string]any) (string, error) {
	if tc.Memory == nil {
		return "", errors.New("memory not available")
	}
	if err := tc.Memory.Save(stringArg(args, "content")); err != nil {
		return "", fmt.Errorf("saving memory: %w", err)
	}
	return "Memory updated successfully.", nil
}
