package history

// Composite groups commands into one history entry. Commands execute in order
// and undo in reverse order.
type Composite struct {
	commands    []Command
	description string
}

// NewComposite creates a composite command. An empty description defaults to
// "Multiple operations".
func NewComposite(description string, commands ...Command) *Composite {
	if description == "" {
		description = "Multiple operations"
	}
	return &Composite{commands: commands, description: description}
}

// Execute runs every command in order.
func (c *Composite) Execute() {
	for _, cmd := range c.commands {
		cmd.Execute()
	}
}

// Undo reverts every command in reverse order.
func (c *Composite) Undo() {
	for i := len(c.commands) - 1; i >= 0; i-- {
		c.commands[i].Undo()
	}
}

// Description returns the composite description.
func (c *Composite) Description() string {
	return c.description
}

// Len returns the number of grouped commands.
func (c *Composite) Len() int {
	return len(c.commands)
}
