package usecase

import (
	"httparity/internal/domain"
)

// BuildInput is everything the artifact builder assembles into one
// document: ordered observations, the process result, and any extension
// sections the run produced.
type BuildInput struct {
	Runner       domain.Runner
	Observations []domain.Observation // already canonically ordered
	Result       RunResult

	// Request body identity (zero for body-less methods).
	ReqBodyLen int64
	ReqBodySHA string
	// Final response body identity, measured on the downloaded payload.
	FinalBodyLen int64
	FinalBodySHA string

	Error       *domain.ErrorInfo
	CookieJar   *domain.CookieJar
	Progress    *domain.ProgressSummary
	Pause       *domain.PauseResume
	PauseStrict *domain.PauseResumeStrict

	// SummarizeConnections derives connection_observed from peer ports.
	SummarizeConnections bool
}

// BuildArtifact assembles the canonical comparison document for one run.
// Multi-observation chains produce requests/responses lists; the final hop
// is also exposed as the singular request/response pair. An input without
// observations is valid for error paths where the client never reached the
// server.
func BuildArtifact(in BuildInput) domain.Artifact {
	a := domain.Artifact{
		Runner:      in.Runner,
		Error:       in.Error,
		CookieJar:   in.CookieJar,
		Progress:    in.Progress,
		Pause:       in.Pause,
		PauseStrict: in.PauseStrict,
		ExitCode:    in.Result.ExitCode,
		DurationMS:  in.Result.Duration.Milliseconds(),
		Stdout:      in.Result.Stdout,
		Stderr:      in.Result.Stderr,
	}

	obs := in.Observations
	if len(obs) == 0 {
		return a
	}

	if len(obs) > 1 {
		a.Requests = make([]domain.RequestSemantic, 0, len(obs))
		a.Responses = make([]domain.ResponseSummary, 0, len(obs))
		for i, o := range obs {
			req := requestFromObservation(o)
			resp := responseFromObservation(o)
			if i == len(obs)-1 {
				// Only the final hop carries the downloaded payload;
				// intermediate hops (redirects) have empty bodies.
				req.BodyLen, req.BodySHA256 = in.ReqBodyLen, in.ReqBodySHA
				resp.BodyLen, resp.BodySHA256 = in.FinalBodyLen, in.FinalBodySHA
			}
			a.Requests = append(a.Requests, req)
			a.Responses = append(a.Responses, resp)
		}
		final := a.Responses[len(a.Responses)-1]
		a.Response = &final
	} else {
		req := requestFromObservation(obs[0])
		req.BodyLen, req.BodySHA256 = in.ReqBodyLen, in.ReqBodySHA
		resp := responseFromObservation(obs[0])
		resp.BodyLen, resp.BodySHA256 = in.FinalBodyLen, in.FinalBodySHA
		a.Request = &req
		a.Response = &resp
	}

	if in.SummarizeConnections {
		ports := make([]int, 0, len(obs))
		for _, o := range obs {
			ports = append(ports, o.PeerPort)
		}
		conn := domain.ConnectionObservedFromPorts(ports)
		a.ConnObs = &conn
	}
	return a
}

func requestFromObservation(o domain.Observation) domain.RequestSemantic {
	return domain.RequestSemantic{
		Method:     o.Method,
		URL:        o.URL,
		Headers:    domain.NormalizeHeaders(o.RequestHeaders),
		BodySHA256: "",
	}
}

func responseFromObservation(o domain.Observation) domain.ResponseSummary {
	return domain.ResponseSummary{
		Status:      o.Status,
		HTTPVersion: o.Protocol,
		Headers:     domain.NormalizeHeaders(o.ResponseHeaders),
		BodySHA256:  "",
	}
}
