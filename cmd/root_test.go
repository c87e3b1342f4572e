package cmd

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	pipelineCalls int
	testCalls     int
	cfgFile       string
	err           error
}

func (r *recorder) runners() runners {
	return runners{
		pipeline: func(_ context.Context, cfgFile string, _ io.Writer) error {
			r.pipelineCalls++
			r.cfgFile = cfgFile
			return r.err
		},
		tests: func(context.Context, io.Writer, io.Writer) error {
			r.testCalls++
			return r.err
		},
	}
}

func TestRootRunsPipelineByDefault(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	cmd := newRootCmd(rec.runners())
	cmd.SetArgs([]string{"--config", "custom.yaml"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	require.Equal(t, 1, rec.pipelineCalls)
	require.Zero(t, rec.testCalls)
	require.Equal(t, "custom.yaml", rec.cfgFile)
}

func TestRootUnitTestFlagSkipsPipeline(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	cmd := newRootCmd(rec.runners())
	cmd.SetArgs([]string{"--unittest"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	require.Equal(t, 1, rec.testCalls)
	require.Zero(t, rec.pipelineCalls)
}

func TestRootPropagatesErrors(t *testing.T) {
	t.Parallel()

	rec := &recorder{err: errors.New("boom")}
	cmd := newRootCmd(rec.runners())
	cmd.SetArgs([]string{})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	require.ErrorContains(t, cmd.ExecuteContext(context.Background()), "boom")
}

func TestRootRejectsPositionalArgs(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	cmd := newRootCmd(rec.runners())
	cmd.SetArgs([]string{"extra"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	require.Error(t, cmd.ExecuteContext(context.Background()))
	require.Zero(t, rec.pipelineCalls)
}
