package transport

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"quantron.io/qs"
)

const MAX_AUTH_ATTEMPTS = 3

var ErrChallengeCancelled = errors.New("authentication challenge cancelled")

type delegateHolder struct {
	delegate qs.ChallengeDelegate
}

//	SetDelegate registers d for authentication challenges; nil removes the
//	current delegate. The delegate is looked up again for every challenge.
func (t *HTTPTransport) SetDelegate(d qs.ChallengeDelegate) {
	t.delegate.Store(delegateHolder{d})
}

func (t *HTTPTransport) Delegate() qs.ChallengeDelegate {
	holder, _ := t.delegate.Load().(delegateHolder)
	return holder.delegate
}

//	resolve forwards challenge to the delegate and blocks until it answers.
//	Without a delegate, or when it panics, default handling applies.
func (t *HTTPTransport) resolve(challenge qs.Challenge) (disposition qs.Disposition, credential *qs.Credential) {
	delegate := t.Delegate()
	if delegate == nil {
		return qs.PerformDefaultHandling, nil
	}

	type answer struct {
		disposition qs.Disposition
		credential  *qs.Credential
	}
	answered := make(chan answer, 1)
	var once sync.Once
	callback := func(d qs.Disposition, c *qs.Credential) {
		once.Do(func() {
			answered <- answer{d, c}
		})
	}

	go func() {
		if qs.Recover(func() { delegate.DidReceiveChallenge(t, challenge, callback) }, t.log) != nil {
			callback(qs.PerformDefaultHandling, nil)
		}
	}()

	a := <-answered
	t.log.Debug("challenge", challenge.Kind, "for", challenge.Host, "resolved:", a.disposition)
	return a.disposition, a.credential
}

type authChallenge struct {
	kind   qs.ChallengeKind
	realm  string
	params map[string]string
}

//	parseWWWAuthenticate understands the first Basic, Digest or Bearer
//	challenge in header.
func parseWWWAuthenticate(header string) (challenge authChallenge, ok bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return
	}
	scheme := header
	rest := ""
	if i := strings.IndexByte(header, ' '); i >= 0 {
		scheme = header[:i]
		rest = header[i+1:]
	}
	switch strings.ToLower(scheme) {
	case "basic":
		challenge.kind = qs.HTTPBasic
	case "digest":
		challenge.kind = qs.HTTPDigest
	case "bearer":
		challenge.kind = qs.HTTPBearer
	default:
		return
	}
	challenge.params = parseAuthParams(rest)
	challenge.realm = challenge.params["realm"]
	ok = true
	return
}

func parseAuthParams(s string) (params map[string]string) {
	params = map[string]string{}
	for len(s) > 0 {
		s = strings.TrimLeft(s, " ,")
		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			return
		}
		key := strings.ToLower(strings.TrimSpace(s[:eq]))
		s = s[eq+1:]
		var value string
		if strings.HasPrefix(s, `"`) {
			end := 1
			for end < len(s) && s[end] != '"' {
				if s[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(s) {
				value = strings.ReplaceAll(s[1:], `\"`, `"`)
				s = ""
			} else {
				value = strings.ReplaceAll(s[1:end], `\"`, `"`)
				s = s[end+1:]
			}
		} else {
			end := strings.IndexByte(s, ',')
			if end < 0 {
				end = len(s)
			}
			value = strings.TrimSpace(s[:end])
			s = s[end:]
		}
		params[key] = value
	}
	return
}

//	applyCredential authorizes request according to the challenge scheme.
func applyCredential(request *http.Request, challenge authChallenge, credential *qs.Credential, nonceCount int) (err error) {
	switch {
	case credential.Token != "":
		request.Header.Set("Authorization", "Bearer "+credential.Token)
	case challenge.kind == qs.HTTPDigest:
		var authorization string
		authorization, err = digestAuthorization(request, challenge.params, credential, nonceCount)
		if err != nil {
			return
		}
		request.Header.Set("Authorization", authorization)
	default:
		request.SetBasicAuth(credential.User, credential.Password)
	}
	return
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

//	digestAuthorization implements RFC 2617 MD5 digest with qop=auth.
func digestAuthorization(request *http.Request, params map[string]string, credential *qs.Credential, nonceCount int) (authorization string, err error) {
	if algorithm := params["algorithm"]; algorithm != "" && !strings.EqualFold(algorithm, "MD5") {
		err = fmt.Errorf("unsupported digest algorithm %s", algorithm)
		return
	}
	realm := params["realm"]
	nonce := params["nonce"]
	uri := request.URL.RequestURI()
	ha1 := md5Hex(credential.User + ":" + realm + ":" + credential.Password)
	ha2 := md5Hex(request.Method + ":" + uri)

	var b strings.Builder
	fmt.Fprintf(&b, `Digest username="%s", realm="%s", nonce="%s", uri="%s"`, credential.User, realm, nonce, uri)
	if qopSupportsAuth(params["qop"]) {
		cnonce, randErr := qs.RandNBase62(12)
		if randErr != nil {
			err = randErr
			return
		}
		nc := fmt.Sprintf("%08x", nonceCount)
		response := md5Hex(strings.Join([]string{ha1, nonce, nc, cnonce, "auth", ha2}, ":"))
		fmt.Fprintf(&b, `, qop=auth, nc=%s, cnonce="%s", response="%s"`, nc, cnonce, response)
	} else {
		fmt.Fprintf(&b, `, response="%s"`, md5Hex(ha1+":"+nonce+":"+ha2))
	}
	if opaque, ok := params["opaque"]; ok {
		fmt.Fprintf(&b, `, opaque="%s"`, opaque)
	}
	authorization = b.String()
	return
}

func qopSupportsAuth(qop string) bool {
	for _, option := range strings.Split(qop, ",") {
		if strings.TrimSpace(option) == "auth" {
			return true
		}
	}
	return false
}
