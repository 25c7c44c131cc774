package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockTurn is a single scripted pipeline output.
type MockTurn struct {
	Output string        // Full generated text to return
	Delay  time.Duration // Optional delay before responding
	Error  error         // Return this error instead of responding
	Panic  any           // Panic with this value instead of responding
}

// MockPipeline returns scripted outputs and records prompts for verification.
type MockPipeline struct {
	turns     []MockTurn
	turnIndex int
	Prompts   []string
	Options   []SamplingOptions
	mu        sync.Mutex
}

// NewMockPipeline creates an empty scripted pipeline.
func NewMockPipeline() *MockPipeline {
	return &MockPipeline{}
}

// AddTurn adds a scripted turn and returns the pipeline for chaining.
func (m *MockPipeline) AddTurn(t MockTurn) *MockPipeline {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, t)
	return m
}

// AddOutput is a convenience method for a turn returning output.
func (m *MockPipeline) AddOutput(output string) *MockPipeline {
	return m.AddTurn(MockTurn{Output: output})
}

// AddCompletion scripts output as a real pipeline would produce it for
// message: the prompt followed by completion.
func (m *MockPipeline) AddCompletion(message, completion string) *MockPipeline {
	return m.AddOutput(BuildLocalPrompt(message) + completion)
}

// AddError adds a turn that fails.
func (m *MockPipeline) AddError(err error) *MockPipeline {
	return m.AddTurn(MockTurn{Error: err})
}

// Calls returns the number of Generate calls so far.
func (m *MockPipeline) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

// Generate implements Pipeline.
func (m *MockPipeline) Generate(ctx context.Context, prompt string, opts SamplingOptions) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.Options = append(m.Options, opts)
	if m.turnIndex >= len(m.turns) {
		m.mu.Unlock()
		return "", fmt.Errorf("mock pipeline: no more turns configured (expected turn %d, have %d)", m.turnIndex, len(m.turns))
	}
	turn := m.turns[m.turnIndex]
	m.turnIndex++
	m.mu.Unlock()

	if turn.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(turn.Delay):
		}
	}
	if turn.Panic != nil {
		panic(turn.Panic)
	}
	if turn.Error != nil {
		return "", turn.Error
	}
	return turn.Output, nil
}

// MockLoader counts construction attempts and hands out a fixed pipeline.
type MockLoader struct {
	Pipeline Pipeline
	Err      error         // Fail every load with this error
	FailN    int           // Fail only the first FailN loads
	Delay    time.Duration // Simulated load time
	Release  chan struct{} // When set, loads block until it is closed

	mu     sync.Mutex
	loads  int
	models []string
}

// Load implements Loader.
func (l *MockLoader) Load(ctx context.Context, model string) (Pipeline, error) {
	l.mu.Lock()
	l.loads++
	attempt := l.loads
	l.models = append(l.models, model)
	l.mu.Unlock()

	if l.Release != nil {
		<-l.Release
	}
	if l.Delay > 0 {
		time.Sleep(l.Delay)
	}
	if l.Err != nil {
		return nil, l.Err
	}
	if attempt <= l.FailN {
		return nil, fmt.Errorf("mock loader: scripted failure %d", attempt)
	}
	return l.Pipeline, nil
}

// Loads returns the number of construction attempts.
func (l *MockLoader) Loads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads
}

// Models returns the model names passed to Load.
func (l *MockLoader) Models() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.models...)
}
