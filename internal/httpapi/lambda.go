package httpapi

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// proxyResponder collects the answer into an API Gateway proxy response.
type proxyResponder struct {
	resp events.APIGatewayProxyResponse
}

func (p *proxyResponder) Respond(status int, header http.Header, body []byte) error {
	p.resp.StatusCode = status
	p.resp.Headers = make(map[string]string, len(header))
	p.resp.MultiValueHeaders = make(map[string][]string, len(header))
	for k, vs := range header {
		if len(vs) == 0 {
			continue
		}
		p.resp.Headers[k] = vs[0]
		p.resp.MultiValueHeaders[k] = vs
	}
	p.resp.Body = string(body)
	return nil
}

// Lambda serves an API Gateway proxy event with the same contract as ServeHTTP.
func (h *Handler) Lambda(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	method := req.HTTPMethod
	if method == "" {
		method = http.MethodGet
	}

	logger := h.Log.With().Str("req_id", req.RequestContext.RequestID).Logger()
	ctx = logger.WithContext(ctx)

	var out proxyResponder
	if err := h.Handle(ctx, method, &out); err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError}, err
	}
	return out.resp, nil
}
