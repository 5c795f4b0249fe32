package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

// maxLineSize bounds a single request line. Tool arguments may carry
// base64 image payloads, so the default 64 KiB scanner limit is far
// too small.
const maxLineSize = 10 * 1024 * 1024

// Server defines the interface for an MCP server transport.
type Server interface {
	Start(ctx context.Context)
	ReadChannel() <-chan JSONRPCRequest
	WriteChannel() chan<- JSONRPCResponse
	Wait()
	Close() error
}

// StdioServer implements the Server interface using standard input/output.
// One goroutine scans newline-delimited JSON-RPC requests from the reader,
// another marshals responses to the writer. The reader stops at input EOF
// or shutdown; the writer keeps draining responses until Close, so
// responses still in flight when the input ends are written, not dropped.
type StdioServer struct {
	reader      io.Reader
	writer      io.Writer
	logger      *slog.Logger
	readChan    chan JSONRPCRequest
	writeChan   chan JSONRPCResponse
	shutdownCtx context.Context
	cancelFunc  context.CancelFunc
	wg          sync.WaitGroup
}

// NewStdioServer creates a new StdioServer instance.
func NewStdioServer(reader io.Reader, writer io.Writer, logger *slog.Logger) *StdioServer {
	ctx, cancel := context.WithCancel(context.Background())
	if logger == nil {
		logger = slog.Default()
	}
	return &StdioServer{
		reader:      reader,
		writer:      writer,
		logger:      logger,
		readChan:    make(chan JSONRPCRequest),
		writeChan:   make(chan JSONRPCResponse),
		shutdownCtx: ctx,
		cancelFunc:  cancel,
	}
}

// Start begins the reader and writer goroutines.
func (s *StdioServer) Start(ctx context.Context) {
	s.wg.Add(2)

	// Reader goroutine: one JSON-RPC request per line, malformed lines skipped.
	go func() {
		defer s.wg.Done()
		defer close(s.readChan)
		scanner := bufio.NewScanner(s.reader)
		scanner.Buffer(make([]byte, 64*1024), maxLineSize)
		for scanner.Scan() {
			select {
			case <-s.shutdownCtx.Done():
				return
			default:
				line := scanner.Bytes()
				var request JSONRPCRequest
				if err := json.Unmarshal(line, &request); err != nil {
					s.logger.Warn("Skipping malformed request line", "error", err)
					continue
				}
				s.logger.Debug("Received request", "method", request.Method, "id", request.ID)
				select {
				case s.readChan <- request:
				case <-s.shutdownCtx.Done():
					return
				}
			}
		}
		if err := scanner.Err(); err != nil && err != io.EOF {
			s.logger.Error("Error reading from input stream", "error", err)
		}
		s.cancelFunc() // reader finished, signal shutdown
	}()

	// Writer goroutine: marshal, newline-delimit, flush per message. It
	// receives until Close closes the channel; after a stream failure it
	// keeps receiving so senders never block, but discards the responses.
	go func() {
		defer s.wg.Done()
		writer := bufio.NewWriter(s.writer)
		outputGone := false
		for response := range s.writeChan {
			if outputGone {
				continue
			}
			if err := s.writeResponse(writer, response); err != nil {
				s.logger.Error("Error writing response", "error", err)
				s.cancelFunc()
				outputGone = true
			}
		}
		_ = writer.Flush()
	}()
}

// writeResponse marshals one response onto the stream and flushes it.
// A marshalling failure only skips that response; a stream failure is
// returned to the caller.
func (s *StdioServer) writeResponse(writer *bufio.Writer, response JSONRPCResponse) error {
	respBytes, err := json.Marshal(response)
	if err != nil {
		s.logger.Error("Error marshalling response", "error", err, "id", response.ID)
		return nil
	}
	if _, err := writer.Write(respBytes); err != nil {
		return err
	}
	if _, err := writer.WriteString("\n"); err != nil {
		return err
	}
	return writer.Flush()
}

// ReadChannel returns the channel for receiving incoming requests.
func (s *StdioServer) ReadChannel() <-chan JSONRPCRequest {
	return s.readChan
}

// WriteChannel returns the channel for sending outgoing responses.
func (s *StdioServer) WriteChannel() chan<- JSONRPCResponse {
	return s.writeChan
}

// Wait blocks until the server has shut down completely. Shutdown
// finishes only once Close has let the writer drain out.
func (s *StdioServer) Wait() {
	<-s.shutdownCtx.Done()
	s.wg.Wait()
}

// Close shuts the server down: it stops the reader, closes the write
// channel so the writer drains out, and blocks until both goroutines
// have exited. All sends on WriteChannel must be finished before Close.
func (s *StdioServer) Close() error {
	s.cancelFunc()
	close(s.writeChan)
	s.wg.Wait()
	return nil
}
