package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/fx"
)

// MockAgentModule is a mock implementation of the AgentModule interface.
type MockAgentModule struct {
	mock.Mock
}

func (m *MockAgentModule) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockAgentModule) ShortDescription() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockAgentModule) LongDescription() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockAgentModule) FxModules() []fx.Option {
	args := m.Called()
	return args.Get(0).([]fx.Option)
}

func (m *MockAgentModule) ConfigureCommand(cmd *cobra.Command) {
	m.Called(cmd)
}

func (m *MockAgentModule) Start() error {
	args := m.Called()
	return args.Error(0)
}

func TestCreateAgentCommand(t *testing.T) {
	mockModule := new(MockAgentModule)

	mockModule.On("Name").Return("mock-agent")
	mockModule.On("ShortDescription").Return("Mock Agent Short Description")
	mockModule.On("LongDescription").Return("Mock Agent Long Description")
	mockModule.On("ConfigureCommand", mock.AnythingOfType("*cobra.Command")).Run(func(args mock.Arguments) {
		cmd := args.Get(0).(*cobra.Command)
		cmd.Run = func(cmd *cobra.Command, args []string) {}
	})

	cmd := CreateAgentCommand(mockModule)

	assert.Equal(t, "mock-agent", cmd.Use)
	assert.Equal(t, "Mock Agent Short Description", cmd.Short)
	assert.Equal(t, "Mock Agent Long Description", cmd.Long)

	configFlag := cmd.PersistentFlags().Lookup("config")
	assert.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	debugFlag := cmd.PersistentFlags().Lookup("debug")
	assert.NotNil(t, debugFlag)
	assert.Equal(t, "d", debugFlag.Shorthand)

	mockModule.AssertCalled(t, "ConfigureCommand", mock.AnythingOfType("*cobra.Command"))
}

func TestTransferAgentCommandTree(t *testing.T) {
	agent := NewTransferAgent()
	cmd := CreateAgentCommand(agent)

	names := make([]string, 0, 2)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"upload", "download"}, names)
	assert.Error(t, agent.Start())
}

func TestIntegrityAgentCommandTree(t *testing.T) {
	agent := NewIntegrityAgent()
	cmd := CreateAgentCommand(agent)

	subs := cmd.Commands()
	assert.Len(t, subs, 1)
	assert.Equal(t, "scan", subs[0].Name())
	assert.NotNil(t, cmd.Run)
}
