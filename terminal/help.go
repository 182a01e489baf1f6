package terminal

import (
	"fmt"
	"strings"
)

type helpCategory struct {
	Name     string
	Commands []helpCommand
}

type helpCommand struct {
	Key         string
	Description string
}

var helpCategories = []helpCategory{
	{
		Name: "Activities",
		Commands: []helpCommand{
			{"a", "Add activity at the pointer"},
			{"e", "Rename selected activity"},
			{"k", "Cycle cardinality constraint"},
			{"[ ]", "Lower/raise constraint value"},
			{"Del", "Delete selection"},
		},
	},
	{
		Name: "Relations",
		Commands: []helpCommand{
			{"c", "Connect from selected activity"},
			{"t", "Cycle relation type"},
			{"r", "Reverse relation"},
			{"l", "Toggle label"},
			{"n", "Start choice, click activities"},
			{"Enter/x", "Finish as choice/exclusive choice"},
		},
	},
	{
		Name: "View",
		Commands: []helpCommand{
			{"s/h", "Select or hand tool"},
			{"+/-/0", "Zoom in/out/reset"},
			{"?", "Show this help"},
		},
	},
	{
		Name: "Editing",
		Commands: []helpCommand{
			{"Ctrl+Z", "Undo"},
			{"Ctrl+Y", "Redo"},
			{"Ctrl+S", "Save"},
			{"ESC", "Cancel/Exit mode"},
		},
	},
	{
		Name: "System",
		Commands: []helpCommand{
			{"q", "Quit"},
			{"Ctrl+C", "Force quit"},
		},
	},
}

// helpLines returns the framed help panel, one string per row.
func helpLines() []string {
	const inner = 44
	rule := strings.Repeat("═", inner+2)

	lines := []string{
		"╔" + rule + "╗",
		fmt.Sprintf("║ %-*s ║", inner, "CONDEC HELP"),
		"╠" + rule + "╣",
	}
	for i, cat := range helpCategories {
		lines = append(lines, fmt.Sprintf("║ %-*s ║", inner, cat.Name+":"))
		for _, cmd := range cat.Commands {
			lines = append(lines, fmt.Sprintf("║   %-8s %-*s ║", cmd.Key, inner-11, cmd.Description))
		}
		if i < len(helpCategories)-1 {
			lines = append(lines, fmt.Sprintf("║ %-*s ║", inner, ""))
		}
	}
	lines = append(lines,
		"╠"+rule+"╣",
		fmt.Sprintf("║ %-*s ║", inner, "Rename: Enter saves, Ctrl+W/U/K delete"),
		"╚"+rule+"╝",
	)
	return lines
}

// compactHelp is shown in the status line when nothing else is.
const compactHelp = "a:add c:connect e:rename t:type k:constraint ?:help q:quit"
