package transport

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

var ErrEmptyBundle = errors.New("certificate bundle holds no certificates")

//	CertificateBundle carries pinned server certificates and an optional
//	client certificate.
type CertificateBundle struct {
	Pinned            []*x509.Certificate
	ClientCertificate *tls.Certificate
}

//	Roots returns a pool of the pinned certificates, nil when none are pinned.
func (b *CertificateBundle) Roots() *x509.CertPool {
	if b == nil || len(b.Pinned) == 0 {
		return nil
	}
	pool := x509.NewCertPool()
	for _, cert := range b.Pinned {
		pool.AddCert(cert)
	}
	return pool
}

//	LoadCertificateBundle reads a PEM, DER or PKCS#12 (.p12/.pfx) file.
func LoadCertificateBundle(path string, password string) (bundle *CertificateBundle, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".p12", ".pfx":
		return ParsePKCS12Bundle(data, password)
	}
	return ParseCertificateBundle(data)
}

//	ParseCertificateBundle accepts PEM (certificates plus an optional private
//	key for the client certificate) or a single DER certificate.
func ParseCertificateBundle(data []byte) (bundle *CertificateBundle, err error) {
	if !bytes.Contains(data, []byte("-----BEGIN")) {
		cert, parseErr := x509.ParseCertificate(data)
		if parseErr != nil {
			err = parseErr
			return
		}
		bundle = &CertificateBundle{Pinned: []*x509.Certificate{cert}}
		return
	}

	bundle = &CertificateBundle{}
	var certPEM, keyPEM []byte
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		switch {
		case block.Type == "CERTIFICATE":
			cert, parseErr := x509.ParseCertificate(block.Bytes)
			if parseErr != nil {
				err = parseErr
				return
			}
			bundle.Pinned = append(bundle.Pinned, cert)
			certPEM = append(certPEM, pem.EncodeToMemory(block)...)
		case strings.HasSuffix(block.Type, "PRIVATE KEY"):
			keyPEM = pem.EncodeToMemory(block)
		}
	}
	if len(bundle.Pinned) == 0 {
		err = ErrEmptyBundle
		return
	}
	if keyPEM != nil {
		clientCert, keyErr := tls.X509KeyPair(certPEM, keyPEM)
		if keyErr != nil {
			err = keyErr
			return
		}
		bundle.ClientCertificate = &clientCert
		//	the client chain is not pinning material
		bundle.Pinned = nil
	}
	return
}

//	ParsePKCS12Bundle decodes a client identity. The bundled CA certificates
//	are pinned.
func ParsePKCS12Bundle(data []byte, password string) (bundle *CertificateBundle, err error) {
	blocks, err := pkcs12.ToPEM(data, password)
	if err != nil {
		return
	}
	var certPEM, keyPEM []byte
	var certs []*x509.Certificate
	for _, block := range blocks {
		switch block.Type {
		case "CERTIFICATE":
			cert, parseErr := x509.ParseCertificate(block.Bytes)
			if parseErr != nil {
				err = parseErr
				return
			}
			certs = append(certs, cert)
			certPEM = append(certPEM, pem.EncodeToMemory(block)...)
		case "PRIVATE KEY":
			keyPEM = pem.EncodeToMemory(block)
		}
	}
	if len(certs) == 0 {
		err = ErrEmptyBundle
		return
	}
	bundle = &CertificateBundle{}
	if keyPEM != nil {
		clientCert, keyErr := tls.X509KeyPair(certPEM, keyPEM)
		if keyErr != nil {
			err = keyErr
			return
		}
		bundle.ClientCertificate = &clientCert
	}
	for _, cert := range certs {
		if cert.IsCA {
			bundle.Pinned = append(bundle.Pinned, cert)
		}
	}
	return
}
