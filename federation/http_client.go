package federation

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/data-package-repo/common/config"
	"github.com/t2bot/data-package-repo/common/rcontext"
	"github.com/t2bot/data-package-repo/common/version"
	"github.com/t2bot/data-package-repo/metrics"
	"github.com/t2bot/data-package-repo/types"
	"github.com/t2bot/data-package-repo/util"
	"github.com/t2bot/data-package-repo/util/cleanup"
)

// HttpClient speaks the DataONE REST v1 API to a single node.
type HttpClient struct {
	baseUrl    string
	host       string
	backoffAt  int
	client     *http.Client
	noRedirect *http.Client
}

func NewHttpClient(conf config.FederationConfig, baseUrl string) (*HttpClient, error) {
	parsed, err := url.Parse(baseUrl)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("node base URL must be http or https: " + baseUrl)
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	if !conf.Anonymous {
		cert, err := tls.LoadX509KeyPair(conf.CertFile, conf.KeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "error loading client certificate")
		}
		tr.TLSClientConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}

	timeout := time.Duration(conf.TimeoutSeconds) * time.Second
	return &HttpClient{
		baseUrl:   baseUrl,
		host:      parsed.Host,
		backoffAt: conf.BackoffAt,
		client: &http.Client{
			Transport: tr,
			Timeout:   timeout,
		},
		noRedirect: &http.Client{
			Transport: tr,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// NewDialer returns a Dialer producing HTTP clients with the given settings.
func NewDialer(conf config.FederationConfig) Dialer {
	return func(baseUrl string) (ObjectStoreClient, error) {
		return NewHttpClient(conf, baseUrl)
	}
}

func (c *HttpClient) BaseUrl() string {
	return c.baseUrl
}

func (c *HttpClient) objectUrl(action string, pid string) string {
	return util.MakeUrl(c.baseUrl, "/v1/", action, url.PathEscape(pid))
}

// do runs the request through the host's breaker. A 404 is handed back to the
// caller, and other client errors are returned without counting against the
// breaker since they say nothing about the node's health.
func (c *HttpClient) do(ctx rcontext.RequestContext, client *http.Client, action string, req *http.Request, okCodes ...int) (*http.Response, error) {
	ctx.Log.Debugf("Calling %s %s", req.Method, req.URL.String())
	req = req.WithContext(ctx.Context)
	req.Header.Set("User-Agent", version.UserAgent())

	labels := prometheus.Labels{"host": c.host, "action": action, "method": req.Method}
	metrics.FederationRequests.With(labels).Inc()
	start := time.Now()

	breakerTimeout := 1 * time.Minute
	if action == "publish" {
		breakerTimeout = 0 // uploads are bounded by the client timeout instead
	}

	var resp *http.Response
	var clientErr error
	status := 0
	cb := getBreaker(c.host, c.backoffAt)
	replyError := cb.CallContext(ctx, func() error {
		var err error
		resp, err = client.Do(req)
		if err != nil {
			return err
		}
		status = resp.StatusCode
		if status == http.StatusNotFound {
			return nil
		}
		for _, code := range okCodes {
			if resp.StatusCode == code {
				return nil
			}
		}
		err = readError(resp)
		_ = resp.Body.Close()
		resp = nil
		if status >= 400 && status < 500 {
			clientErr = err
			return nil
		}
		return err
	}, breakerTimeout)
	if replyError == nil && clientErr != nil {
		replyError = clientErr
	}

	metrics.FederationResponseTime.With(labels).Observe(time.Since(start).Seconds())
	if status != 0 {
		metrics.FederationResponses.With(prometheus.Labels{
			"host":       c.host,
			"action":     action,
			"method":     req.Method,
			"statusCode": fmt.Sprint(status),
		}).Inc()
	}
	if replyError != nil {
		return nil, replyError
	}
	return resp, nil
}

func (c *HttpClient) get(ctx rcontext.RequestContext, client *http.Client, action string, pid string, okCodes ...int) (*http.Response, bool, error) {
	req, err := http.NewRequest(http.MethodGet, c.objectUrl(action, pid), nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := c.do(ctx, client, action, req, okCodes...)
	if err != nil {
		return nil, false, err
	}
	if resp.StatusCode == http.StatusNotFound {
		cleanup.DumpAndCloseStream(resp.Body)
		return nil, false, nil
	}
	return resp, true, nil
}

func (c *HttpClient) Get(ctx rcontext.RequestContext, pid string) (io.ReadCloser, bool, error) {
	resp, found, err := c.get(ctx, c.client, "object", pid, http.StatusOK)
	if err != nil || !found {
		return nil, found, err
	}
	return resp.Body, true, nil
}

func (c *HttpClient) GetSystemMetadata(ctx rcontext.RequestContext, pid string) (*types.SystemMetadata, bool, error) {
	resp, found, err := c.get(ctx, c.client, "meta", pid, http.StatusOK)
	if err != nil || !found {
		return nil, found, err
	}
	defer resp.Body.Close()
	meta, err := DecodeSystemMetadata(resp.Body)
	if err != nil {
		return nil, false, err
	}
	return meta, true, nil
}

func (c *HttpClient) Resolve(ctx rcontext.RequestContext, pid string) ([]types.ObjectLocation, bool, error) {
	// Coordinating nodes answer with 303 See Other and the location list as the body
	resp, found, err := c.get(ctx, c.noRedirect, "resolve", pid, http.StatusOK, http.StatusSeeOther)
	if err != nil || !found {
		return nil, found, err
	}
	defer resp.Body.Close()
	locations, err := DecodeObjectLocations(resp.Body)
	if err != nil {
		return nil, false, err
	}
	return locations, true, nil
}

func (c *HttpClient) ListNodes(ctx rcontext.RequestContext) ([]types.Node, error) {
	req, err := http.NewRequest(http.MethodGet, util.MakeUrl(c.baseUrl, "/v1/node"), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, c.client, "node", req, http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, readError(resp)
	}
	return DecodeNodes(resp.Body)
}

func (c *HttpClient) Create(ctx rcontext.RequestContext, pid string, body io.Reader, meta *types.SystemMetadata) (*types.Receipt, error) {
	return c.publish(ctx, http.MethodPost, util.MakeUrl(c.baseUrl, "/v1/object"), "pid", pid, body, meta)
}

func (c *HttpClient) Update(ctx rcontext.RequestContext, pid string, body io.Reader, obsoletes string, meta *types.SystemMetadata) (*types.Receipt, error) {
	return c.publish(ctx, http.MethodPut, c.objectUrl("object", obsoletes), "newPid", pid, body, meta)
}

func (c *HttpClient) publish(ctx rcontext.RequestContext, method string, target string, pidField string, pid string, body io.Reader, meta *types.SystemMetadata) (*types.Receipt, error) {
	// Sniff the content type from the head of the stream unless the body
	// declares one, then stitch it back together
	head := make([]byte, 3072)
	n, err := io.ReadFull(body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, errors.Wrap(err, "error reading object body")
	}
	head = head[:n]
	contentType := mimetype.Detect(head).String()
	if typed, ok := body.(ContentTyped); ok && typed.ContentType() != "" {
		contentType = typed.ContentType()
	}
	body = io.MultiReader(bytes.NewReader(head), body)

	sysmetaBuf := &bytes.Buffer{}
	if err = EncodeSystemMetadata(sysmetaBuf, meta); err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeParts(mw, pidField, pid, contentType, body, sysmetaBuf))
	}()

	req, err := http.NewRequest(method, target, pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	ctx.Log.WithFields(logrus.Fields{
		"pid":         pid,
		"contentType": contentType,
	}).Debug("Publishing object")
	resp, err := c.do(ctx, c.client, "publish", req, http.StatusOK, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, readError(resp)
	}

	returned, err := DecodeIdentifier(resp.Body)
	if err != nil {
		return nil, err
	}
	if returned != pid {
		ctx.Log.Warnf("Node returned identifier %s when publishing %s", returned, pid)
	}
	return &types.Receipt{Pid: returned, NodeUrl: c.baseUrl}, nil
}

func writeParts(mw *multipart.Writer, pidField string, pid string, contentType string, body io.Reader, sysmeta io.Reader) error {
	if err := mw.WriteField(pidField, pid); err != nil {
		return err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="object"; filename="object"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err = io.Copy(part, body); err != nil {
		return err
	}

	part, err = mw.CreateFormFile("sysmeta", "sysmeta.xml")
	if err != nil {
		return err
	}
	if _, err = io.Copy(part, sysmeta); err != nil {
		return err
	}

	return mw.Close()
}
