package qs

import (
	"crypto/tls"
	"crypto/x509"
	"net/http"
)

const MIME_JSON = "application/json"

//	Completion receives the outcome of one exchange: a classified error or the
//	raw response body.
type Completion func(err error, data []byte)

//	RequestSpec describes one exchange. Body is sent as is unless Attachments
//	or Params are set, in which case a multipart body is built.
type RequestSpec struct {
	Method       string
	URL          string
	RequestType  string
	ResponseType string
	Body         []byte
	Attachments  []Attachment
	Params       map[string]string
	Header       http.Header
	Queue        Queue
}

func (spec RequestSpec) IsMultipart() bool {
	return len(spec.Attachments) > 0 || spec.Params != nil
}

//	Transport performs exactly one HTTP exchange per call and reports it
//	exactly once through completion, on spec.Queue when set.
type Transport interface {
	Perform(spec RequestSpec, completion Completion)
}

type ChallengeKind int

const (
	ServerTrust ChallengeKind = iota
	ClientCertificate
	HTTPBasic
	HTTPDigest
	HTTPBearer
)

func (k ChallengeKind) String() string {
	switch k {
	case ServerTrust:
		return "server-trust"
	case ClientCertificate:
		return "client-certificate"
	case HTTPBasic:
		return "basic"
	case HTTPDigest:
		return "digest"
	case HTTPBearer:
		return "bearer"
	}
	return "unknown"
}

type Challenge struct {
	Kind  ChallengeKind
	Host  string
	Realm string
	//	number of credentials already rejected for this exchange
	PreviousFailureCount int
	//	ServerTrust only
	PeerCertificates []*x509.Certificate
	//	ServerTrust only: outcome of default verification, nil when trusted
	VerifyError error
	//	ClientCertificate only
	AcceptableCAs [][]byte
}

type Disposition int

const (
	PerformDefaultHandling Disposition = iota
	UseCredential
	Cancel
	Accept
)

func (d Disposition) String() string {
	switch d {
	case PerformDefaultHandling:
		return "default"
	case UseCredential:
		return "use-credential"
	case Cancel:
		return "cancel"
	case Accept:
		return "accept"
	}
	return "unknown"
}

type Credential struct {
	User        string
	Password    string
	Token       string
	Certificate *tls.Certificate
}

type ChallengeCallback func(disposition Disposition, credential *Credential)

//	ChallengeDelegate resolves authentication challenges. It may be called on
//	any goroutine and must eventually invoke callback exactly once.
type ChallengeDelegate interface {
	DidReceiveChallenge(t Transport, challenge Challenge, callback ChallengeCallback)
}

//	ChallengeFunc adapts a function to ChallengeDelegate.
type ChallengeFunc func(t Transport, challenge Challenge, callback ChallengeCallback)

func (f ChallengeFunc) DidReceiveChallenge(t Transport, challenge Challenge, callback ChallengeCallback) {
	f(t, challenge, callback)
}
