package proxy

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/papercomputeco/azrelay/pkg/azure"
	"github.com/papercomputeco/azrelay/pkg/llm"
	"github.com/papercomputeco/azrelay/pkg/sse"
	"github.com/papercomputeco/azrelay/pkg/utils"
	"github.com/papercomputeco/azrelay/proxy/worker"
)

// maxLoggedErrorBody caps how much of an upstream error body is logged.
const maxLoggedErrorBody = 512

// relayHandler returns the handler for one inbound OpenAI route.
func (p *Proxy) relayHandler(op azure.Operation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return p.handleRelay(c, op)
	}
}

// handleRelay resolves the deployment and credential for a request, then
// forwards it to Azure.
//
// Checks run in a fixed order: the body must be JSON, the model must be
// mapped, and an Authorization header must be present. Failing any of them
// answers the client without contacting upstream.
func (p *Proxy) handleRelay(c *fiber.Ctx, op azure.Operation) error {
	startTime := time.Now()
	requestID := uuid.NewString()

	// Only POST bodies are read; anything else carries no model.
	req := &llm.RelayRequest{}
	if c.Method() == fiber.MethodPost {
		var err error
		req, err = llm.ParseRelayRequest(c.Body())
		if err != nil {
			p.logger.Warn("rejecting request with invalid body",
				"request_id", requestID,
				"operation", string(op),
				"error", err,
			)
			p.metrics.Reject(rejectInvalidBody)
			return c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	deployment, ok := p.config.Deployments.Lookup(req.Model)
	if !ok {
		p.logger.Debug("rejecting request for unmapped model",
			"request_id", requestID,
			"operation", string(op),
			"model", req.Model,
		)
		p.metrics.Reject(rejectMissingMapping)
		return c.Status(fiber.StatusForbidden).SendString(msgMissingMapper)
	}

	authorization := c.Get(fiber.HeaderAuthorization)
	if authorization == "" {
		p.logger.Debug("rejecting request without credentials",
			"request_id", requestID,
			"operation", string(op),
		)
		p.metrics.Reject(rejectUnauthorized)
		return c.Status(fiber.StatusForbidden).SendString(msgNotAllowed)
	}

	job := worker.Job{
		RequestID:  requestID,
		Operation:  string(op),
		Model:      req.Model,
		Deployment: deployment,
		Streaming:  req.Streaming(),
	}
	upstreamURL := p.endpoint.URL(deployment, op)
	apiKey := azure.APIKeyFromAuthorization(authorization)

	if req.Streaming() {
		return p.handleStreamingRelay(c, upstreamURL, apiKey, req.Body, job, startTime)
	}

	return p.handleNonStreamingRelay(c, upstreamURL, apiKey, req.Body, job, startTime)
}

// handleNonStreamingRelay forwards a request and relays the complete
// upstream response.
func (p *Proxy) handleNonStreamingRelay(c *fiber.Ctx, upstreamURL, apiKey string, body []byte, job worker.Job, startTime time.Time) error {
	httpReq, err := http.NewRequestWithContext(c.Context(), http.MethodPost, upstreamURL, bytes.NewReader(body))
	if err != nil {
		p.logger.Error("failed to create upstream request", "request_id", job.RequestID, "error", err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	p.headerHandler.SetUpstreamRequestHeaders(httpReq, apiKey)

	p.logger.Debug("forwarding request to upstream",
		"request_id", job.RequestID,
		"url", upstreamURL,
	)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return p.upstreamFailed(c, job, startTime, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return p.upstreamFailed(c, job, startTime, err)
	}

	p.headerHandler.SetClientResponseHeaders(c, httpResp)

	if isSuccess(httpResp.StatusCode) {
		if usage, ok := llm.ParseUsage(respBody); ok {
			job.Usage = usage
		}
	} else {
		p.logger.Debug("upstream returned error",
			"request_id", job.RequestID,
			"status", httpResp.StatusCode,
			"body", utils.Truncate(string(respBody), maxLoggedErrorBody),
		)
	}

	job.Status = httpResp.StatusCode
	job.Duration = time.Since(startTime)
	p.workerPool.Enqueue(job)

	return c.Status(httpResp.StatusCode).Send(respBody)
}

// handleStreamingRelay forwards a stream=true request and passes the upstream
// body, whatever its status, through the reframer.
func (p *Proxy) handleStreamingRelay(c *fiber.Ctx, upstreamURL, apiKey string, body []byte, job worker.Job, startTime time.Time) error {
	// Use context.Background() instead of c.Context() because fasthttp recycles
	// its RequestCtx after the handler returns, but the relay goroutine runs
	// asynchronously and needs the upstream connection to remain open.
	ctx, cancel := context.WithCancel(context.Background())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, upstreamURL, bytes.NewReader(body))
	if err != nil {
		cancel()
		p.logger.Error("failed to create upstream request", "request_id", job.RequestID, "error", err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	p.headerHandler.SetUpstreamRequestHeaders(httpReq, apiKey)

	p.logger.Debug("forwarding streaming request to upstream",
		"request_id", job.RequestID,
		"url", upstreamURL,
	)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		return p.upstreamFailed(c, job, startTime, err)
	}

	p.headerHandler.SetClientResponseHeaders(c, httpResp)
	c.Status(httpResp.StatusCode)

	// Error bodies go through the reframer too. It keeps every byte, so the
	// client still sees the complete error followed by the closing newline.
	if !isSuccess(httpResp.StatusCode) {
		p.logger.Debug("upstream returned error",
			"request_id", job.RequestID,
			"status", httpResp.StatusCode,
		)
	}

	// Use io.Pipe + SetBodyStream instead of SetBodyStreamWriter.
	// SetBodyStreamWriter buffers through an internal pipe and bufio.Writers,
	// so a flush in the callback does not reach the TCP socket and pacing
	// would be lost.
	//
	// With io.Pipe, pw.Write blocks until fasthttp's writeBodyChunked consumes
	// the frame and flushes it to the client, which gives direct backpressure
	// and per-frame delivery. When the client goes away fasthttp closes the
	// body stream, which cancels the upstream request.
	//
	// fasthttp only notices a vanished client when it writes to it, so while
	// upstream is idle the upstream request stays open until its next byte.
	pr, pw := io.Pipe()
	go p.relayStream(ctx, cancel, httpResp, pw, job, startTime)

	// Set the pipe reader as the body stream with unknown size (-1),
	// which triggers chunked transfer encoding in fasthttp.
	c.Context().Response.SetBodyStream(&cancelOnClose{PipeReader: pr, cancel: cancel}, -1)

	return nil
}

// relayStream runs the reframer between the upstream body and the client
// pipe, then enqueues the outcome. It owns httpResp and cancel.
func (p *Proxy) relayStream(ctx context.Context, cancel context.CancelFunc, httpResp *http.Response, pw *io.PipeWriter, job worker.Job, startTime time.Time) {
	defer cancel()
	defer httpResp.Body.Close()

	var usage *llm.Usage
	reframer := sse.NewReframer(
		sse.WithPacer(p.config.pacer()),
		sse.WithFrameHook(func(frame []byte) {
			ev := sse.ParseEvent(frame)
			if ev == nil || ev.IsDone() {
				return
			}
			if u, ok := llm.ParseUsage([]byte(ev.Data)); ok {
				usage = u
			}
		}),
	)

	stats, err := reframer.Relay(ctx, httpResp.Body, pw)
	if err != nil && !errors.Is(err, io.ErrClosedPipe) && !errors.Is(err, context.Canceled) {
		p.logger.Error("error relaying stream",
			"request_id", job.RequestID,
			"error", err,
		)
	}

	job.Status = httpResp.StatusCode
	job.Frames = stats.Frames
	job.Usage = usage
	job.Duration = time.Since(startTime)
	job.Err = err
	p.workerPool.Enqueue(job)
}

// cancelOnClose is the client body stream. Closing it also cancels the
// upstream request so the relay goroutine stops reading from Azure.
type cancelOnClose struct {
	*io.PipeReader
	cancel context.CancelFunc
}

func (r *cancelOnClose) Close() error {
	r.cancel()
	return r.PipeReader.Close()
}

// upstreamFailed answers the client when Azure could not be reached or its
// response could not be read.
func (p *Proxy) upstreamFailed(c *fiber.Ctx, job worker.Job, startTime time.Time, err error) error {
	p.logger.Error("upstream request failed",
		"request_id", job.RequestID,
		"operation", job.Operation,
		"error", err,
	)

	job.Status = fiber.StatusBadGateway
	job.Duration = time.Since(startTime)
	job.Err = err
	p.workerPool.Enqueue(job)

	return c.Status(fiber.StatusBadGateway).SendString(msgUpstreamError)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
