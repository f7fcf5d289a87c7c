package common

import (
	"context"
	"fmt"
	"io"

	"candidatelens/internal/errors"
)

// LoadInputFunc builds the command input from files on disk
type LoadInputFunc[Input any] func(fp *FileProcessor) (Input, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// OperationFunc runs the command's work on the loaded input
type OperationFunc[Input, Output any] func(context.Context, Input) (Output, error)

// RunCommand encapsulates the common logic for file-based CLI commands:
// load, run, then format and write the result.
func RunCommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	maxFileSize int64,
	stdout io.Writer,
	loadInput LoadInputFunc[Input],
	operation OperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	fileProcessor := NewFileProcessor(logger, maxFileSize)
	outputHandler := NewOutputHandler(logger)
	if stdout != nil {
		outputHandler.WithStdout(stdout)
	}

	input, err := loadInput(fileProcessor)
	if err != nil {
		return err
	}

	if logDetails != nil {
		logDetails(input, cmdConfig)
	}

	result, err := operation(ctx, input)
	if err != nil {
		return fmt.Errorf("operation failed: %w", err)
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
