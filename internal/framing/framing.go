package framing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"

	acperrors "github.com/wagiedev/acp-client-go/internal/errors"
)

const (
	headerDelimiter = "\r\n\r\n"
	lengthField     = "content-length"
	protocolVersion = "2.0"

	// maxHeaderSize bounds how many bytes may accumulate without a header
	// delimiter before the buffer is treated as garbage.
	maxHeaderSize = 8 * 1024
)

// Kind classifies a decoded JSON-RPC message.
type Kind int

const (
	// KindUnknown is returned for messages of an unexpected type.
	KindUnknown Kind = iota
	// KindResponse is a reply to a request this side issued.
	KindResponse
	// KindNotification is an id-less request from the peer.
	KindNotification
	// KindCall is a request from the peer that expects a reply.
	KindCall
)

func (k Kind) String() string {
	switch k {
	case KindResponse:
		return "response"
	case KindNotification:
		return "notification"
	case KindCall:
		return "call"
	default:
		return "unknown"
	}
}

// Classify reports whether msg is a response, notification or call.
func Classify(msg jsonrpc.Message) Kind {
	switch m := msg.(type) {
	case *jsonrpc.Response:
		return KindResponse
	case *jsonrpc.Request:
		if m.IsCall() {
			return KindCall
		}

		return KindNotification
	default:
		return KindUnknown
	}
}

// Decoder reassembles Content-Length framed messages from arbitrary chunks.
//
// A Decoder is not safe for concurrent use; a single reader goroutine owns it.
type Decoder struct {
	buf []byte
}

// NewDecoder creates an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Buffered returns the number of bytes waiting for the rest of their frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Feed appends p to the accumulation buffer and returns every message that
// is now complete, in wire order. Frames that cannot be decoded are skipped
// and reported as joined *FrameError values alongside the good messages.
func (d *Decoder) Feed(p []byte) ([]jsonrpc.Message, error) {
	d.buf = append(d.buf, p...)

	var (
		msgs []jsonrpc.Message
		errs []error
		off  int
	)

	for off < len(d.buf) {
		rest := d.buf[off:]

		idx := bytes.Index(rest, []byte(headerDelimiter))
		if idx < 0 {
			if len(rest) > maxHeaderSize {
				// Keep whatever could still begin a header: the last
				// Content-Length field, or a tail too short to rule one out.
				keep := len(lengthField) - 1
				if k := bytes.LastIndex(bytes.ToLower(rest), []byte(lengthField)); k > 0 {
					keep = len(rest) - k
				}

				drop := len(rest) - keep

				errs = append(errs, &acperrors.FrameError{
					Reason: "no header delimiter within " + strconv.Itoa(maxHeaderSize) + " bytes",
					Raw:    slices.Clone(rest[:min(drop, 64)]),
				})
				off += drop
			}

			break
		}

		header := rest[:idx]

		length, err := parseContentLength(header)
		if err != nil {
			skip := idx + len(headerDelimiter)
			// Resynchronize on a Content-Length field buried in leading garbage.
			if k := bytes.Index(bytes.ToLower(header), []byte(lengthField)); k > 0 {
				skip = k
			}

			errs = append(errs, &acperrors.FrameError{
				Reason: "invalid header",
				Raw:    slices.Clone(rest[:skip]),
				Err:    err,
			})
			off += skip

			continue
		}

		start := idx + len(headerDelimiter)
		if len(rest)-start < length {
			break
		}

		body := rest[start : start+length]
		off += start + length

		msg, err := jsonrpc.DecodeMessage(body)
		if err != nil {
			errs = append(errs, &acperrors.FrameError{
				Reason: "invalid message body",
				Raw:    slices.Clone(body),
				Err:    err,
			})

			continue
		}

		msgs = append(msgs, msg)
	}

	if off > 0 {
		d.buf = slices.Clone(d.buf[off:])
	}

	return msgs, errors.Join(errs...)
}

func parseContentLength(header []byte) (int, error) {
	for line := range strings.SplitSeq(string(header), "\n") {
		name, value, ok := strings.Cut(strings.TrimRight(line, "\r"), ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), lengthField) {
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("content length %q: %w", strings.TrimSpace(value), err)
		}

		if n < 0 {
			return 0, fmt.Errorf("negative content length %d", n)
		}

		return n, nil
	}

	return 0, errors.New("missing Content-Length")
}

// Encode serializes msg with its Content-Length header.
func Encode(msg jsonrpc.Message) ([]byte, error) {
	data, err := jsonrpc.EncodeMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}

	return frame(data), nil
}

func frame(data []byte) []byte {
	out := fmt.Appendf(make([]byte, 0, len(data)+32), "Content-Length: %d\r\n\r\n", len(data))

	return append(out, data...)
}

// NewRequest builds an outbound request with a numeric id.
func NewRequest(id int64, method string, params any) (*jsonrpc.Request, error) {
	rid, err := jsonrpc.MakeID(float64(id))
	if err != nil {
		return nil, fmt.Errorf("make id %d: %w", id, err)
	}

	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}

	return &jsonrpc.Request{ID: rid, Method: method, Params: raw}, nil
}

// NewNotification builds an outbound id-less request.
func NewNotification(method string, params any) (*jsonrpc.Request, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}

	return &jsonrpc.Request{Method: method, Params: raw}, nil
}

// NewResult builds a successful reply to a peer call.
func NewResult(id jsonrpc.ID, result any) (*jsonrpc.Response, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	return &jsonrpc.Response{ID: id, Result: raw}, nil
}

func marshalParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}

	if raw, ok := params.(json.RawMessage); ok {
		return raw, nil
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	return raw, nil
}

type wireError struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type wireErrorReply struct {
	Version string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Error   wireError `json:"error"`
}

// EncodeErrorReply frames an error reply to a peer call with an explicit
// JSON-RPC error code.
func EncodeErrorReply(id jsonrpc.ID, code int64, message string) ([]byte, error) {
	data, err := json.Marshal(wireErrorReply{
		Version: protocolVersion,
		ID:      id.Raw(),
		Error:   wireError{Code: code, Message: message},
	})
	if err != nil {
		return nil, fmt.Errorf("encode error reply: %w", err)
	}

	return frame(data), nil
}

// ProtocolErrorFrom converts the error carried by a response into a
// *ProtocolError, preserving the wire code and data when present.
func ProtocolErrorFrom(method string, err error) *acperrors.ProtocolError {
	perr := &acperrors.ProtocolError{Method: method, Message: err.Error()}

	// Decoded wire errors marshal back to their code/message/data shape.
	raw, merr := json.Marshal(err)
	if merr != nil {
		return perr
	}

	var we wireError
	if json.Unmarshal(raw, &we) == nil && we.Message != "" {
		perr.Code = we.Code
		perr.Message = we.Message

		if len(we.Data) > 0 && string(we.Data) != "null" {
			perr.Data = []byte(we.Data)
		}
	}

	return perr
}

// IDValue extracts the numeric value of a JSON-RPC id.
func IDValue(id jsonrpc.ID) (int64, bool) {
	switch v := id.Raw().(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)

		return n, err == nil
	default:
		return 0, false
	}
}
