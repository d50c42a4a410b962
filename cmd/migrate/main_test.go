package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type mockMigrator struct {
	mock.Mock
}

func (m *mockMigrator) Up() error   { return m.Called().Error(0) }
func (m *mockMigrator) Down() error { return m.Called().Error(0) }

func (m *mockMigrator) Steps(n int) error { return m.Called(n).Error(0) }

func (m *mockMigrator) GoTo(version uint) error { return m.Called(version).Error(0) }

func (m *mockMigrator) Force(version int) error { return m.Called(version).Error(0) }

func (m *mockMigrator) Version() (uint, bool, error) {
	args := m.Called()
	return args.Get(0).(uint), args.Bool(1), args.Error(2)
}

func TestRunDBCommand(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		setup func(m *mockMigrator)
	}{
		{"up", []string{"up"}, func(m *mockMigrator) { m.On("Up").Return(nil) }},
		{"down", []string{"down"}, func(m *mockMigrator) { m.On("Down").Return(nil) }},
		{"step back", []string{"step", "-1"}, func(m *mockMigrator) { m.On("Steps", -1).Return(nil) }},
		{"goto", []string{"goto", "3"}, func(m *mockMigrator) { m.On("GoTo", uint(3)).Return(nil) }},
		{"force", []string{"force", "2"}, func(m *mockMigrator) { m.On("Force", 2).Return(nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockMigrator{}
			tt.setup(m)

			require.NoError(t, runDBCommand(m, tt.args, zap.NewNop()))
			m.AssertExpectations(t)
		})
	}
}

func TestRunDBCommand_UsageErrors(t *testing.T) {
	for _, args := range [][]string{
		{"step"},
		{"step", "0"},
		{"step", "two"},
		{"goto", "-4"},
		{"force"},
		{"drop"},
	} {
		t.Run(args[0], func(t *testing.T) {
			m := &mockMigrator{}
			err := runDBCommand(m, args, zap.NewNop())
			assert.ErrorIs(t, err, errUsage)
			m.AssertNotCalled(t, "Steps", mock.Anything)
		})
	}
}

func TestRunDBCommand_Version(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	m := &mockMigrator{}
	m.On("Version").Return(uint(1), false, nil)

	require.NoError(t, runDBCommand(m, []string{"version"}, zap.New(core)))

	require.Len(t, recorded.All(), 1)
	assert.Equal(t, uint64(1), recorded.All()[0].ContextMap()["version"])
}

func TestRunFileCommand_CreateAndList(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	handled, err := runFileCommand([]string{"list"}, dir, zap.NewNop(), &out)
	require.True(t, handled)
	require.NoError(t, err)
	assert.Equal(t, "No migrations found\n", out.String())

	handled, err = runFileCommand([]string{"create", "Add customer phone"}, dir, zap.NewNop(), &out)
	require.True(t, handled)
	require.NoError(t, err)

	out.Reset()
	_, err = runFileCommand([]string{"list"}, dir, zap.NewNop(), &out)
	require.NoError(t, err)
	assert.Equal(t, "000001_add_customer_phone\n", out.String())

	handled, err = runFileCommand([]string{"create"}, dir, zap.NewNop(), &out)
	assert.True(t, handled)
	assert.ErrorIs(t, err, errUsage)

	handled, _ = runFileCommand([]string{"up"}, dir, zap.NewNop(), &out)
	assert.False(t, handled)
}
