package prompt

// MockPrompter implements Prompter for testing, returning queued responses.
type MockPrompter struct {
	// Responses are returned for successive calls as zero-based indexes.
	Responses []int
	// Errors, when non-nil at a call's position, are returned instead.
	Errors []error
	// Calls records every call.
	Calls []MockPrompterCall

	callIndex int
}

// MockPrompterCall records a single call to Prompt.
type MockPrompterCall struct {
	Prompt     string
	Options    []string
	DefaultIdx int
}

// NewMockPrompter creates a MockPrompter with the given responses.
func NewMockPrompter(responses ...int) *MockPrompter {
	return &MockPrompter{Responses: responses}
}

// Prompt returns the next queued response or error, then defaultIdx once
// the queue is exhausted.
func (m *MockPrompter) Prompt(prompt string, options []string, defaultIdx int) (int, error) {
	m.Calls = append(m.Calls, MockPrompterCall{
		Prompt:     prompt,
		Options:    options,
		DefaultIdx: defaultIdx,
	})

	i := m.callIndex
	m.callIndex++
	if i < len(m.Errors) && m.Errors[i] != nil {
		return 0, m.Errors[i]
	}
	if i < len(m.Responses) {
		return m.Responses[i], nil
	}
	return defaultIdx, nil
}

// MockYesNoPrompter implements YesNoPrompter for testing.
type MockYesNoPrompter struct {
	Responses []bool
	Errors    []error
	Calls     []MockYesNoCall

	callIndex int
}

// MockYesNoCall records a single call to PromptYesNo.
type MockYesNoCall struct {
	Prompt     string
	DefaultYes bool
}

// NewMockYesNoPrompter creates a MockYesNoPrompter with the given responses.
func NewMockYesNoPrompter(responses ...bool) *MockYesNoPrompter {
	return &MockYesNoPrompter{Responses: responses}
}

// PromptYesNo returns the next queued response or error.
func (m *MockYesNoPrompter) PromptYesNo(prompt string, defaultYes bool) (bool, error) {
	m.Calls = append(m.Calls, MockYesNoCall{Prompt: prompt, DefaultYes: defaultYes})

	i := m.callIndex
	m.callIndex++
	if i < len(m.Errors) && m.Errors[i] != nil {
		return false, m.Errors[i]
	}
	if i < len(m.Responses) {
		return m.Responses[i], nil
	}
	return defaultYes, nil
}
