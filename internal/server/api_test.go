package server_test

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap"

	"github.com/edgecomet/botagent/internal/common/configtypes"
	"github.com/edgecomet/botagent/internal/server"
	"github.com/edgecomet/botagent/pkg/botagent"
	"github.com/edgecomet/botagent/pkg/pattern"
	"github.com/edgecomet/botagent/pkg/source"
)

const (
	googlebotUA = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
	gptbotUA    = "Mozilla/5.0 AppleWebKit/537.36 (KHTML, like Gecko; compatible; GPTBot/1.2; +https://openai.com/gptbot)"
	chromeUA    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type apiClient struct {
	client *fasthttp.Client
}

func newAPIClient(ln *fasthttputil.InmemoryListener) *apiClient {
	return &apiClient{client: &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
	}}
}

func (c *apiClient) get(uri, userAgent string) (int, map[string]interface{}, *fasthttp.ResponseHeader) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://botagent" + uri)
	if userAgent != "" {
		req.Header.SetUserAgent(userAgent)
	}
	Expect(c.client.Do(req, resp)).To(Succeed())

	var body map[string]interface{}
	if len(resp.Body()) > 0 {
		Expect(json.Unmarshal(resp.Body(), &body)).To(Succeed())
	}
	header := &fasthttp.ResponseHeader{}
	resp.Header.CopyTo(header)
	return resp.StatusCode(), body, header
}

func startServer(src string) (*server.Server, *apiClient) {
	detector := botagent.New(source.NewMux(), botagent.WithCache(pattern.NewCache()))
	srv := server.NewServer(
		configtypes.ServerConfig{Listen: "inmemory", Timeout: configtypes.Duration(5 * time.Second)},
		detector, src, nil, zap.NewNop(),
	)

	ln := fasthttputil.NewInmemoryListener()
	go func() {
		defer GinkgoRecover()
		_ = srv.Serve(ln)
	}()

	DeferCleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Expect(srv.Shutdown(ctx)).To(Succeed())
	})
	return srv, newAPIClient(ln)
}

var _ = Describe("Bot Agent API", func() {
	Describe("with a pattern file", func() {
		var client *apiClient

		BeforeEach(func() {
			dir := GinkgoT().TempDir()
			patternsPath := filepath.Join(dir, "patterns-"+uuid.NewString()+".json")
			content, err := json.Marshal([]string{"Googlebot", "GPTBot/\\d", "(?<! cu)bots?(?:\\b|_)"})
			Expect(err).ToNot(HaveOccurred())
			Expect(os.WriteFile(patternsPath, content, 0o644)).To(Succeed())

			_, client = startServer(patternsPath)
		})

		It("reports not ready until the first check", func() {
			status, _, _ := client.get("/ready", "")
			Expect(status).To(Equal(fasthttp.StatusServiceUnavailable))

			status, body, _ := client.get("/check", googlebotUA)
			Expect(status).To(Equal(fasthttp.StatusOK))
			Expect(body["bot"]).To(BeTrue())

			status, body, _ = client.get("/ready", "")
			Expect(status).To(Equal(fasthttp.StatusOK))
			Expect(body["patterns"]).To(BeNumerically("==", 3))
		})

		It("classifies crawler and browser user agents", func() {
			_, body, _ := client.get("/check", gptbotUA)
			Expect(body["bot"]).To(BeTrue())
			Expect(body["match"]).To(Equal("GPTBot/1"))

			_, body, _ = client.get("/check", chromeUA)
			Expect(body["bot"]).To(BeFalse())
			Expect(body["match"]).To(BeNil())
		})

		It("lists every matching pattern in source order", func() {
			status, body, _ := client.get("/matches", googlebotUA)
			Expect(status).To(Equal(fasthttp.StatusOK))
			Expect(body["patterns"]).To(Equal([]interface{}{"Googlebot", "(?<! cu)bots?(?:\\b|_)"}))
		})

		It("returns the first authored pattern", func() {
			_, body, _ := client.get("/pattern?ua=googlebot1", "")
			Expect(body["pattern"]).To(BeNil(), "as-authored matching keeps case")

			_, body, _ = client.get("/pattern", gptbotUA)
			Expect(body["pattern"]).To(Equal("GPTBot/\\d"))
		})

		It("attaches a request ID to every response", func() {
			_, _, header := client.get("/health", "")
			_, err := uuid.Parse(string(header.Peek("X-Request-ID")))
			Expect(err).ToNot(HaveOccurred())
		})
	})

	Describe("with builtin aliases", func() {
		var client *apiClient

		BeforeEach(func() {
			_, client = startServer("builtin:AIBots")
		})

		It("detects AI crawlers only", func() {
			_, body, _ := client.get("/check", gptbotUA)
			Expect(body["bot"]).To(BeTrue())

			_, body, _ = client.get("/check", chromeUA)
			Expect(body["bot"]).To(BeFalse())
		})
	})

	Describe("with a missing pattern file", func() {
		var client *apiClient

		BeforeEach(func() {
			_, client = startServer(filepath.Join(GinkgoT().TempDir(), "missing.json"))
		})

		It("returns load errors and stays not ready", func() {
			status, body, _ := client.get("/check", googlebotUA)
			Expect(status).To(Equal(fasthttp.StatusInternalServerError))
			Expect(body["kind"]).To(Equal("cache_init"))

			status, body, _ = client.get("/pattern", googlebotUA)
			Expect(status).To(Equal(fasthttp.StatusInternalServerError))
			Expect(body["kind"]).To(Equal("load"))

			status, _, _ = client.get("/ready", "")
			Expect(status).To(Equal(fasthttp.StatusServiceUnavailable))
		})
	})

	Describe("Middleware", func() {
		It("tags downstream requests", func() {
			srv, _ := startServer("builtin:SearchBots")

			var tagged []string
			handler := srv.Middleware(func(ctx *fasthttp.RequestCtx) {
				tagged = append(tagged, string(ctx.Request.Header.Peek(server.HeaderBot)))
			})

			for _, ua := range []string{googlebotUA, chromeUA} {
				ctx := &fasthttp.RequestCtx{}
				ctx.Request.Header.SetUserAgent(ua)
				handler(ctx)
			}
			Expect(tagged).To(Equal([]string{"1", "0"}))
		})
	})
})
