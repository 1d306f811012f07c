package usecase

import (
	"fmt"
	"reflect"

	"httparity/internal/domain"
)

// CompareArtifacts diffs a baseline artifact against a candidate one under
// the field-scope rules of each section. Mismatches are collected
// exhaustively, never raised: a single run yields the complete diff list.
// Optional sections are compared only when present on at least one side;
// one-sided presence is itself a diff.
func CompareArtifacts(base, cand domain.Artifact) (bool, []string) {
	var diffs []string

	diffs = append(diffs, compareRequests(base, cand)...)
	diffs = append(diffs, compareResponses(base, cand)...)

	if base.CookieJar != nil || cand.CookieJar != nil {
		if base.CookieJar == nil || cand.CookieJar == nil {
			diffs = append(diffs, "cookiejar missing in one side")
		} else {
			diffs = append(diffs, cmpField("cookiejar.records", base.CookieJar.Records, cand.CookieJar.Records)...)
			diffs = append(diffs, cmpField("cookiejar.sha256", base.CookieJar.SHA256, cand.CookieJar.SHA256)...)
		}
	}

	diffs = append(diffs, compareError(base.Error, cand.Error)...)
	diffs = append(diffs, compareProgress(base.Progress, cand.Progress)...)

	if base.ConnObs != nil || cand.ConnObs != nil {
		if base.ConnObs == nil || cand.ConnObs == nil {
			diffs = append(diffs, "connection_observed missing in one side")
		} else {
			diffs = append(diffs, cmpField("connection_observed.request_count", base.ConnObs.RequestCount, cand.ConnObs.RequestCount)...)
			diffs = append(diffs, cmpField("connection_observed.unique_connections", base.ConnObs.UniqueConnections, cand.ConnObs.UniqueConnections)...)
			diffs = append(diffs, cmpDeep("connection_observed.conn_seq", base.ConnObs.ConnSeq, cand.ConnObs.ConnSeq)...)
		}
	}

	if base.Pause != nil || cand.Pause != nil {
		if base.Pause == nil || cand.Pause == nil {
			diffs = append(diffs, "pause_resume missing in one side")
		} else {
			diffs = append(diffs, cmpField("pause_resume.pause_offset", base.Pause.PauseOffset, cand.Pause.PauseOffset)...)
			diffs = append(diffs, cmpField("pause_resume.pause_count", base.Pause.PauseCount, cand.Pause.PauseCount)...)
			diffs = append(diffs, cmpField("pause_resume.resume_count", base.Pause.ResumeCount, cand.Pause.ResumeCount)...)
			diffs = append(diffs, cmpDeep("pause_resume.event_seq", base.Pause.EventSeq, cand.Pause.EventSeq)...)
		}
	}

	diffs = append(diffs, comparePauseStrict(base, cand)...)

	return len(diffs) == 0, diffs
}

func compareRequests(base, cand domain.Artifact) []string {
	if base.Requests != nil || cand.Requests != nil {
		if len(base.Requests) == 0 || len(cand.Requests) == 0 {
			return []string{"requests missing in one side"}
		}
		var diffs []string
		if len(base.Requests) != len(cand.Requests) {
			return []string{fmt.Sprintf("requests length mismatch: %d != %d", len(base.Requests), len(cand.Requests))}
		}
		for i := range base.Requests {
			diffs = append(diffs, cmpRequest(fmt.Sprintf("requests[%d]", i), base.Requests[i], cand.Requests[i])...)
		}
		return diffs
	}
	if base.Request == nil && cand.Request == nil {
		return nil
	}
	if base.Request == nil || cand.Request == nil {
		return []string{"request missing in one side"}
	}
	return cmpRequest("request", *base.Request, *cand.Request)
}

func compareResponses(base, cand domain.Artifact) []string {
	var diffs []string
	if base.Responses != nil || cand.Responses != nil {
		if len(base.Responses) == 0 || len(cand.Responses) == 0 {
			diffs = append(diffs, "responses missing in one side")
		} else if len(base.Responses) != len(cand.Responses) {
			diffs = append(diffs, fmt.Sprintf("responses length mismatch: %d != %d", len(base.Responses), len(cand.Responses)))
		} else {
			for i := range base.Responses {
				diffs = append(diffs, cmpResponse(fmt.Sprintf("responses[%d]", i), base.Responses[i], cand.Responses[i])...)
			}
		}
	}
	if base.Response == nil && cand.Response == nil {
		return diffs
	}
	if base.Response == nil || cand.Response == nil {
		return append(diffs, "response missing in one side")
	}
	diffs = append(diffs, cmpResponse("response", *base.Response, *cand.Response)...)
	diffs = append(diffs, cmpRawHeaders(*base.Response, *cand.Response)...)
	return diffs
}

func cmpRequest(label string, a, b domain.RequestSemantic) []string {
	var diffs []string
	diffs = append(diffs, cmpField(label+".method", a.Method, b.Method)...)
	diffs = append(diffs, cmpField(label+".url", a.URL, b.URL)...)
	diffs = append(diffs, cmpDeep(label+".headers", a.Headers, b.Headers)...)
	diffs = append(diffs, cmpField(label+".body_len", a.BodyLen, b.BodyLen)...)
	diffs = append(diffs, cmpField(label+".body_sha256", a.BodySHA256, b.BodySHA256)...)
	return diffs
}

func cmpResponse(label string, a, b domain.ResponseSummary) []string {
	var diffs []string
	diffs = append(diffs, cmpField(label+".status", a.Status, b.Status)...)
	diffs = append(diffs, cmpField(label+".http_version", a.HTTPVersion, b.HTTPVersion)...)
	diffs = append(diffs, cmpDeep(label+".headers", a.Headers, b.Headers)...)
	diffs = append(diffs, cmpField(label+".body_len", a.BodyLen, b.BodyLen)...)
	diffs = append(diffs, cmpField(label+".body_sha256", a.BodySHA256, b.BodySHA256)...)
	return diffs
}

// cmpRawHeaders compares the optional header-fidelity fields of the final
// response. They are compared only when present on both sides; presence
// must agree.
func cmpRawHeaders(a, b domain.ResponseSummary) []string {
	var diffs []string
	if (a.HeadersRawLines != nil) != (b.HeadersRawLines != nil) {
		diffs = append(diffs, "response.headers_raw_lines missing in one side")
	} else if a.HeadersRawLines != nil {
		diffs = append(diffs, cmpDeep("response.headers_raw_lines", a.HeadersRawLines, b.HeadersRawLines)...)
	}
	if (a.HeadersRawLen != nil) != (b.HeadersRawLen != nil) {
		diffs = append(diffs, "response.headers_raw_len missing in one side")
	} else if a.HeadersRawLen != nil {
		diffs = append(diffs, cmpField("response.headers_raw_len", *a.HeadersRawLen, *b.HeadersRawLen)...)
	}
	if (a.HeadersRawSHA256 != "") != (b.HeadersRawSHA256 != "") {
		diffs = append(diffs, "response.headers_raw_sha256 missing in one side")
	} else if a.HeadersRawSHA256 != "" {
		diffs = append(diffs, cmpField("response.headers_raw_sha256", a.HeadersRawSHA256, b.HeadersRawSHA256)...)
	}
	return diffs
}

func compareError(a, b *domain.ErrorInfo) []string {
	if a == nil && b == nil {
		return nil
	}
	if a == nil || b == nil {
		return []string{"error missing in one side"}
	}
	var diffs []string
	diffs = append(diffs, cmpField("error.kind", a.Kind, b.Kind)...)
	diffs = append(diffs, cmpField("error.http_status", a.HTTPStatus, b.HTTPStatus)...)
	if (a.CurlCode != nil) != (b.CurlCode != nil) {
		diffs = append(diffs, "error.curlcode missing in one side")
	} else if a.CurlCode != nil {
		diffs = append(diffs, cmpField("error.curlcode", *a.CurlCode, *b.CurlCode)...)
	}
	if (a.HTTPCode != nil) != (b.HTTPCode != nil) {
		diffs = append(diffs, "error.http_code missing in one side")
	} else if a.HTTPCode != nil {
		diffs = append(diffs, cmpField("error.http_code", *a.HTTPCode, *b.HTTPCode)...)
	}
	return diffs
}

func compareProgress(a, b *domain.ProgressSummary) []string {
	if a == nil && b == nil {
		return nil
	}
	if a == nil || b == nil {
		return []string{"progress_summary missing in one side"}
	}
	var diffs []string
	diffs = append(diffs, cmpLane("download", a.Download, b.Download)...)
	diffs = append(diffs, cmpLane("upload", a.Upload, b.Upload)...)
	return diffs
}

func cmpLane(lane string, a, b *domain.ProgressLane) []string {
	if a == nil && b == nil {
		return nil
	}
	if a == nil || b == nil {
		return []string{fmt.Sprintf("progress_summary.%s missing in one side", lane)}
	}
	var diffs []string
	diffs = append(diffs, cmpField("progress_summary."+lane+".monotonic", a.Monotonic, b.Monotonic)...)
	diffs = append(diffs, cmpField("progress_summary."+lane+".now_max", a.NowMax, b.NowMax)...)
	diffs = append(diffs, cmpField("progress_summary."+lane+".total_max", a.TotalMax, b.TotalMax)...)
	return diffs
}

func comparePauseStrict(base, cand domain.Artifact) []string {
	a, b := base.PauseStrict, cand.PauseStrict
	if a == nil && b == nil {
		return nil
	}
	if a == nil || b == nil {
		return []string{"pause_resume_strict missing in one side"}
	}
	var diffs []string
	diffs = append(diffs, cmpField("pause_resume_strict.schema", a.Schema, b.Schema)...)
	diffs = append(diffs, cmpField("pause_resume_strict.proto", a.Proto, b.Proto)...)
	diffs = append(diffs, cmpField("pause_resume_strict.pause_offset", a.PauseOffset, b.PauseOffset)...)
	diffs = append(diffs, cmpField("pause_resume_strict.resume_delay_ms", a.ResumeDelayMS, b.ResumeDelayMS)...)

	// The contract is validated independently per side; all violations of
	// one side are collected before moving to the next.
	diffs = append(diffs, ValidatePauseResume(string(domain.RunnerBaseline), *a, finalBodyLen(base))...)
	diffs = append(diffs, ValidatePauseResume(string(domain.RunnerCandidate), *b, finalBodyLen(cand))...)
	return diffs
}

// finalBodyLen is the externally observed response body length used by the
// terminal-consistency rule.
func finalBodyLen(a domain.Artifact) int64 {
	if a.Response != nil {
		return a.Response.BodyLen
	}
	if n := len(a.Responses); n > 0 {
		return a.Responses[n-1].BodyLen
	}
	return 0
}

func cmpField[T comparable](label string, a, b T) []string {
	if a != b {
		return []string{fmt.Sprintf("%s mismatch: %v != %v", label, a, b)}
	}
	return nil
}

func cmpDeep(label string, a, b any) []string {
	if !reflect.DeepEqual(a, b) {
		return []string{fmt.Sprintf("%s mismatch: %v != %v", label, a, b)}
	}
	return nil
}
