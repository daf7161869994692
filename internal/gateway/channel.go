package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/google/uuid"

	"github.com/tally-dev/tally/internal/channel"
	"github.com/tally-dev/tally/internal/model"
)

// ErrChannelClosed is wrapped by the TransportError of calls made on, or
// pending when, the channel closes.
var ErrChannelClosed = errors.New("message channel closed")

// Channel is the Gateway binding for the message channel. It may be shared
// between goroutines: writes are serialized and responses are routed back
// to their caller by correlation ID.
type Channel struct {
	conn   io.ReadWriteCloser
	reader *bufio.Reader

	wmu sync.Mutex // serializes writes

	mu      sync.Mutex
	pending map[string]chan channel.Message

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewChannel speaks the message protocol over conn and takes ownership of
// it.
func NewChannel(conn io.ReadWriteCloser) *Channel {
	c := &Channel{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		pending: make(map[string]chan channel.Message),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

type process struct {
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	stdout   io.ReadCloser
	readDone <-chan struct{} // closed when the channel stops reading stdout
}

func (p *process) Read(b []byte) (int, error)  { return p.stdout.Read(b) }
func (p *process) Write(b []byte) (int, error) { return p.stdin.Write(b) }

// Close ends the child's input, lets the read loop drain stdout to EOF and
// then reaps the child. Wait must not run while stdout is still being read.
func (p *process) Close() error {
	_ = p.stdin.Close()
	<-p.readDone
	return p.cmd.Wait()
}

// SpawnChannel starts command, typically "tally channel", and talks to it
// over its stdin and stdout. The child's stderr is passed through.
func SpawnChannel(ctx context.Context, command []string) (*Channel, error) {
	if len(command) == 0 {
		return nil, errors.New("empty channel command")
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", command[0], err)
	}
	p := &process{cmd: cmd, stdin: stdin, stdout: stdout}
	c := NewChannel(p)
	p.readDone = c.done
	return c, nil
}

var _ Gateway = (*Channel)(nil)

// Close closes the underlying connection. Pending calls fail with a
// TransportError.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	<-c.done
	return c.closeErr
}

func (c *Channel) ListAccounts(ctx context.Context) ([]model.Account, error) {
	var accts []model.Account
	if err := c.call(ctx, OpListAccounts, channel.NameAccountsList, nil, &accts); err != nil {
		return nil, err
	}
	return accts, nil
}

func (c *Channel) ListOperations(ctx context.Context, accountID string) ([]model.Operation, error) {
	var ops []model.Operation
	if err := c.call(ctx, OpListOperations, channel.NameOperationsList, accountID, &ops); err != nil {
		return nil, err
	}
	return ops, nil
}

func (c *Channel) GetOperation(ctx context.Context, accountID, operationID string) (model.Operation, error) {
	var op model.Operation
	ref := channel.OperationRef{AccountID: accountID, OperationID: operationID}
	if err := c.call(ctx, OpGetOperation, channel.NameOperationsOne, ref, &op); err != nil {
		return model.Operation{}, err
	}
	return op, nil
}

func (c *Channel) AddOperation(ctx context.Context, accountID string, d model.OperationDraft) error {
	p := channel.AddPayload{Account: model.AccountRef{ID: accountID}, Operation: d}
	return c.call(ctx, OpAddOperation, channel.NameOperationsAdd, p, nil)
}

func (c *Channel) UpdateOperation(ctx context.Context, accountID string, op model.Operation) error {
	p := channel.UpdatePayload{Account: model.AccountRef{ID: accountID}, Operation: op}
	return c.call(ctx, OpUpdateOperation, channel.NameOperationsUpdate, p, nil)
}

func (c *Channel) ImportFiles(ctx context.Context, paths []string) ([]model.CandidateOperation, error) {
	if paths == nil {
		paths = []string{}
	}
	cands := []model.CandidateOperation{}
	if err := c.call(ctx, OpImportFiles, channel.NameImport, paths, &cands); err != nil {
		return nil, err
	}
	if cands == nil {
		cands = []model.CandidateOperation{}
	}
	return cands, nil
}

func (c *Channel) ListReferences(ctx context.Context) (model.ReferenceCatalog, error) {
	var cat model.ReferenceCatalog
	if err := c.call(ctx, OpListReferences, channel.NameReferencesList, nil, &cat); err != nil {
		return model.ReferenceCatalog{}, err
	}
	return cat, nil
}

// call sends one request and waits for the response with the same ID.
func (c *Channel) call(ctx context.Context, op, name string, payload, out any) error {
	id := uuid.NewString()
	req, err := channel.NewMessage(id, name, payload)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	ch := make(chan channel.Message, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.send(req); err != nil {
		return &TransportError{Op: op, Err: err}
	}

	var resp channel.Message
	select {
	case resp = <-ch:
	case <-c.done:
		select {
		case resp = <-ch:
		default:
			return &TransportError{Op: op, Err: ErrChannelClosed}
		}
	case <-ctx.Done():
		return &TransportError{Op: op, Err: ctx.Err()}
	}

	switch resp.Name {
	case channel.NameError:
		return &ValidationError{Op: op, Message: resp.ErrorText()}
	case name:
	default:
		return &TransportError{Op: op, Err: fmt.Errorf("unexpected response %q to %q", resp.Name, name)}
	}

	if out == nil {
		return nil
	}
	if err := resp.Decode(out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}

func (c *Channel) send(m channel.Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := fmt.Fprintf(c.conn, "%s\n", data); err != nil {
		return fmt.Errorf("writing %s: %w", m.Name, err)
	}
	return nil
}

func (c *Channel) readLoop() {
	defer close(c.done)
	for {
		line, err := c.reader.ReadBytes('\n')
		if len(line) > 0 {
			var m channel.Message
			if json.Unmarshal(line, &m) == nil && m.ID != "" {
				c.mu.Lock()
				ch, ok := c.pending[m.ID]
				c.mu.Unlock()
				if ok {
					select {
					case ch <- m:
					default:
					}
				}
			}
		}
		if err != nil {
			return
		}
	}
}
