package transport

/*
*	HTTP implementation of the qs.Transport contract.
 */

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/blang/semver"
	"github.com/op/go-logging"

	"quantron.io/qs"
)

const MAX_RESPONSE_BYTES = 32 << 20

var ErrResponseTooLarge = errors.New("response body too large")

type Options struct {
	Timeout time.Duration
	Bundle  *CertificateBundle
	//	responses advertising an older version fail with a ServerError
	MinServerVersion *semver.Version
	Log              *logging.Logger
	//	overrides the underlying round tripper, TLS settings are then ignored
	RoundTripper http.RoundTripper
}

type HTTPTransport struct {
	client           *http.Client
	bundle           *CertificateBundle
	minServerVersion *semver.Version
	log              *logging.Logger
	delegate         atomic.Value
	serverVersion    atomic.Value
}

var _ qs.Transport = (*HTTPTransport)(nil)

func NewHTTPTransport(options Options) (t *HTTPTransport) {
	t = &HTTPTransport{
		bundle:           options.Bundle,
		minServerVersion: options.MinServerVersion,
		log:              qs.LoggerOrDefault(options.Log),
	}
	roundTripper := options.RoundTripper
	if roundTripper == nil {
		httpTransport := http.DefaultTransport.(*http.Transport).Clone()
		//	proxied connections skip DialTLSContext and use this config
		httpTransport.TLSClientConfig = t.tlsConfig("")
		httpTransport.DialTLSContext = t.dialTLS
		roundTripper = httpTransport
	}
	timeout := options.Timeout
	if timeout == 0 {
		timeout = qs.DEFAULT_TIMEOUT
	}
	t.client = &http.Client{
		Transport: roundTripper,
		Timeout:   timeout,
	}
	return
}

//	NewHTTPTransportFromConfig loads the certificate bundle named by config.
func NewHTTPTransportFromConfig(config qs.Config, log *logging.Logger) (t *HTTPTransport, err error) {
	options := Options{
		Timeout: config.Timeout,
		Log:     log,
	}
	if config.Certificate != "" {
		options.Bundle, err = LoadCertificateBundle(config.Certificate, config.CertificatePassword)
		if err != nil {
			err = &qs.ConfigError{Field: "certificate", Err: err}
			return
		}
	}
	options.MinServerVersion, err = config.ParsedMinServerVersion()
	if err != nil {
		return
	}
	t = NewHTTPTransport(options)
	return
}

//	dialTLS binds verification to the dialed host so IP-literal URLs are
//	checked against the certificate's IP SANs.
func (t *HTTPTransport) dialTLS(ctx context.Context, network, addr string) (conn net.Conn, err error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return
	}
	var dialer net.Dialer
	raw, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return
	}
	tlsConn := tls.Client(raw, t.tlsConfig(host))
	if err = tlsConn.HandshakeContext(ctx); err != nil {
		raw.Close()
		return
	}
	conn = tlsConn
	return
}

//	Verification is performed in verifyConnection so that a delegate can
//	overrule it; InsecureSkipVerify only disables the built-in pass.
func (t *HTTPTransport) tlsConfig(host string) *tls.Config {
	return &tls.Config{
		ServerName:         host,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: true,
		NextProtos:         []string{"http/1.1"},
		VerifyConnection: func(cs tls.ConnectionState) error {
			return t.verifyConnection(host, cs)
		},
		GetClientCertificate: t.getClientCertificate,
	}
}

func (t *HTTPTransport) defaultVerify(host string, cs tls.ConnectionState) (err error) {
	if len(cs.PeerCertificates) == 0 {
		err = errors.New("server presented no certificates")
		return
	}
	intermediates := x509.NewCertPool()
	for _, cert := range cs.PeerCertificates[1:] {
		intermediates.AddCert(cert)
	}
	_, err = cs.PeerCertificates[0].Verify(x509.VerifyOptions{
		Roots:         t.bundle.Roots(),
		DNSName:       host,
		Intermediates: intermediates,
	})
	return
}

func (t *HTTPTransport) verifyConnection(host string, cs tls.ConnectionState) (err error) {
	if host == "" {
		host = cs.ServerName
	}
	verifyErr := t.defaultVerify(host, cs)
	if t.Delegate() == nil {
		return verifyErr
	}
	disposition, _ := t.resolve(qs.Challenge{
		Kind:             qs.ServerTrust,
		Host:             host,
		PeerCertificates: cs.PeerCertificates,
		VerifyError:      verifyErr,
	})
	switch disposition {
	case qs.Accept, qs.UseCredential:
		return nil
	case qs.Cancel:
		return ErrChallengeCancelled
	}
	return verifyErr
}

func (t *HTTPTransport) getClientCertificate(cri *tls.CertificateRequestInfo) (cert *tls.Certificate, err error) {
	cert = &tls.Certificate{}
	if t.bundle != nil && t.bundle.ClientCertificate != nil {
		cert = t.bundle.ClientCertificate
	}
	if t.Delegate() == nil {
		return
	}
	disposition, credential := t.resolve(qs.Challenge{
		Kind:          qs.ClientCertificate,
		AcceptableCAs: cri.AcceptableCAs,
	})
	switch disposition {
	case qs.UseCredential:
		if credential != nil && credential.Certificate != nil {
			cert = credential.Certificate
		}
	case qs.Cancel:
		err = ErrChallengeCancelled
	}
	return
}

//	ServerVersion is the version advertised by the last response that
//	carried one.
func (t *HTTPTransport) ServerVersion() (version semver.Version, ok bool) {
	version, ok = t.serverVersion.Load().(semver.Version)
	return
}

func (t *HTTPTransport) PostData(data []byte, requestMimeType string, url string, responseMimeType string, completion qs.Completion, queue qs.Queue) {
	t.Perform(qs.RequestSpec{
		Method:       http.MethodPost,
		URL:          url,
		RequestType:  requestMimeType,
		ResponseType: responseMimeType,
		Body:         data,
		Queue:        queue,
	}, completion)
}

func (t *HTTPTransport) PostAttachments(attachments []qs.Attachment, params map[string]string, url string, mimeType string, completion qs.Completion, queue qs.Queue) {
	if params == nil {
		params = map[string]string{}
	}
	t.Perform(qs.RequestSpec{
		Method:       http.MethodPost,
		URL:          url,
		ResponseType: mimeType,
		Attachments:  attachments,
		Params:       params,
		Queue:        queue,
	}, completion)
}

func (t *HTTPTransport) GetData(requestMimeType string, url string, completion qs.Completion, queue qs.Queue) {
	t.Perform(qs.RequestSpec{
		Method:       http.MethodGet,
		URL:          url,
		RequestType:  requestMimeType,
		ResponseType: requestMimeType,
		Queue:        queue,
	}, completion)
}

//	Perform runs the exchange on its own goroutine and delivers completion
//	exactly once on spec.Queue, or on that goroutine when no queue is set.
func (t *HTTPTransport) Perform(spec qs.RequestSpec, completion qs.Completion) {
	go func() {
		var data []byte
		var err error
		if panicErr := qs.Recover(func() { data, err = t.exchange(spec) }, t.log); panicErr != nil {
			data, err = nil, &qs.TransportError{Op: spec.Method, URL: spec.URL, Err: panicErr}
		}
		qs.Deliver(func() {
			qs.RecoverToLog(func() { completion(err, data) }, t.log)
		}, spec.Queue)
	}()
}

func (t *HTTPTransport) exchange(spec qs.RequestSpec) (data []byte, err error) {
	method := spec.Method
	if method == "" {
		method = http.MethodPost
	}
	transportErr := func(cause error) error {
		return &qs.TransportError{Op: method, URL: spec.URL, Err: cause}
	}

	body := spec.Body
	contentType := spec.RequestType
	if spec.IsMultipart() {
		body, contentType, err = EncodeMultipart(spec.Attachments, spec.Params)
		if err != nil {
			err = transportErr(err)
			return
		}
	}

	var credential *qs.Credential
	var challenge authChallenge
	for attempt := 0; ; attempt++ {
		var request *http.Request
		request, err = t.newRequest(method, spec, body, contentType)
		if err != nil {
			err = transportErr(err)
			return
		}
		if credential != nil {
			if err = applyCredential(request, challenge, credential, attempt); err != nil {
				err = transportErr(err)
				return
			}
		}

		start := time.Now()
		var response *http.Response
		response, err = t.client.Do(request)
		if err != nil {
			t.log.Error("exchange", method, spec.URL, "failed:", err)
			err = transportErr(err)
			return
		}
		data, err = readBody(response)
		if err != nil {
			err = transportErr(err)
			return
		}
		t.log.Debug(method, spec.URL, response.StatusCode, "in", time.Since(start))

		if response.StatusCode == http.StatusUnauthorized && attempt < MAX_AUTH_ATTEMPTS {
			parsed, ok := parseWWWAuthenticate(response.Header.Get("WWW-Authenticate"))
			if ok {
				disposition, supplied := t.resolve(qs.Challenge{
					Kind:                 parsed.kind,
					Host:                 request.URL.Host,
					Realm:                parsed.realm,
					PreviousFailureCount: attempt,
				})
				if disposition == qs.Cancel {
					err = transportErr(ErrChallengeCancelled)
					data = nil
					return
				}
				if disposition == qs.UseCredential && supplied != nil {
					challenge = parsed
					credential = supplied
					continue
				}
			}
		}

		err = t.classify(response, data)
		if err != nil {
			data = nil
		}
		return
	}
}

func (t *HTTPTransport) newRequest(method string, spec qs.RequestSpec, body []byte, contentType string) (request *http.Request, err error) {
	var reader io.Reader
	if method != http.MethodGet && method != http.MethodHead {
		reader = bytes.NewReader(body)
	}
	request, err = http.NewRequest(method, spec.URL, reader)
	if err != nil {
		return
	}
	for key, values := range spec.Header {
		for _, value := range values {
			request.Header.Add(key, value)
		}
	}
	if contentType != "" && reader != nil {
		request.Header.Set("Content-Type", contentType)
	}
	if spec.ResponseType != "" {
		request.Header.Set("Accept", spec.ResponseType)
	}
	request.Header.Set(qs.CLIENT_VERSION_HEADER, qs.CURRENT_VERSION.String())
	return
}

func readBody(response *http.Response) (data []byte, err error) {
	defer response.Body.Close()
	data, err = io.ReadAll(io.LimitReader(response.Body, MAX_RESPONSE_BYTES+1))
	if err != nil {
		return
	}
	if len(data) > MAX_RESPONSE_BYTES {
		err = ErrResponseTooLarge
		data = nil
	}
	return
}

func (t *HTTPTransport) classify(response *http.Response, data []byte) (err error) {
	if !qs.IsSuccessStatus(response.StatusCode) {
		serverErr := qs.ServerErrorFromBody(response.StatusCode, data)
		t.log.Notice("server error:", serverErr)
		err = serverErr
		return
	}
	version, ok := qs.ParseServerVersion(response.Header.Get(qs.SERVER_VERSION_HEADER))
	if !ok {
		return
	}
	t.serverVersion.Store(version)
	if t.minServerVersion != nil && version.LT(*t.minServerVersion) {
		err = &qs.ServerError{
			Code:    response.StatusCode,
			Type:    "unsupported_version",
			Message: fmt.Sprintf("server version %s is older than %s", version, t.minServerVersion),
		}
	}
	return
}
