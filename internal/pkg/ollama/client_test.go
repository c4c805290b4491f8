package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"chatbot/internal/config"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	c, err := NewClient(&config.OllamaConfig{BaseURL: baseURL, Model: "llama3.2", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

// closedAddr 返回一个已释放的本地端口，连接会被拒绝
func closedAddr(t *testing.T) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return "http://" + addr
}

// droppingServer 接受连接后不响应直接断开
func droppingServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
}

func TestClient_Generate(t *testing.T) {
	Convey("Generate 发送非流式请求并解析响应", t, func() {
		var (
			got          GenerateRequest
			method, path string
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method, path = r.Method, r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = io.WriteString(w, `{"model":"llama3.2","response":"Hello!","done":true}`)
		}))
		defer srv.Close()

		c := newTestClient(t, srv.URL)
		resp, err := c.Generate(context.Background(), &GenerateRequest{Model: "llama3.2", Prompt: "Assistant: ", Stream: true})

		So(err, ShouldBeNil)
		So(method, ShouldEqual, http.MethodPost)
		So(path, ShouldEqual, "/api/generate")
		So(resp.Response, ShouldNotBeNil)
		So(*resp.Response, ShouldEqual, "Hello!")
		So(got.Stream, ShouldBeFalse)
		So(got.Prompt, ShouldEqual, "Assistant: ")
		So(got.Model, ShouldEqual, "llama3.2")
	})

	Convey("缺少 response 字段时 Response 为 nil", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"done":true}`)
		}))
		defer srv.Close()

		resp, err := newTestClient(t, srv.URL).Generate(context.Background(), &GenerateRequest{Model: "llama3.2"})
		So(err, ShouldBeNil)
		So(resp.Response, ShouldBeNil)
	})

	Convey("非 2xx 状态码返回 StatusError 并带上后端错误信息", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"model 'llama3.2' not found"}`)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL).Generate(context.Background(), &GenerateRequest{Model: "llama3.2"})
		var statusErr *StatusError
		So(errors.As(err, &statusErr), ShouldBeTrue)
		So(statusErr.StatusCode, ShouldEqual, http.StatusNotFound)
		So(statusErr.Message, ShouldEqual, "model 'llama3.2' not found")
		So(IsUnreachable(err), ShouldBeFalse)
	})

	Convey("响应体不是 JSON 时返回解析错误", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "not json")
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL).Generate(context.Background(), &GenerateRequest{Model: "llama3.2"})
		So(err, ShouldNotBeNil)
		So(IsUnreachable(err), ShouldBeFalse)
	})

	Convey("连接被拒绝时返回 ErrUnreachable", t, func() {
		_, err := newTestClient(t, closedAddr(t)).Generate(context.Background(), &GenerateRequest{Model: "llama3.2"})
		So(errors.Is(err, ErrUnreachable), ShouldBeTrue)
	})

	Convey("后端在响应前断开连接时返回 ErrUnreachable", t, func() {
		srv := droppingServer()
		defer srv.Close()

		_, err := newTestClient(t, srv.URL).Generate(context.Background(), &GenerateRequest{Model: "llama3.2"})
		So(errors.Is(err, ErrUnreachable), ShouldBeTrue)
	})

	Convey("响应体中途截断不算不可达", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"response": "Hel`)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL).Generate(context.Background(), &GenerateRequest{Model: "llama3.2"})
		So(err, ShouldNotBeNil)
		So(IsUnreachable(err), ShouldBeFalse)
	})
}

func TestClient_GenerateStream(t *testing.T) {
	Convey("GenerateStream 逐行返回分片并跳过空行", t, func() {
		var got GenerateRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.Header().Set("Content-Type", "application/x-ndjson")
			_, _ = io.WriteString(w, "{\"response\":\"hi\",\"done\":false}\n\n{\"response\":\"there\",\"done\":true}\n")
		}))
		defer srv.Close()

		stream, err := newTestClient(t, srv.URL).GenerateStream(context.Background(), &GenerateRequest{Model: "llama3.2", Prompt: "p"})
		So(err, ShouldBeNil)
		defer stream.Close()
		So(got.Stream, ShouldBeTrue)

		first, err := stream.Recv()
		So(err, ShouldBeNil)
		So(*first.Response, ShouldEqual, "hi")
		So(first.Done, ShouldBeFalse)

		second, err := stream.Recv()
		So(err, ShouldBeNil)
		So(*second.Response, ShouldEqual, "there")
		So(second.Done, ShouldBeTrue)

		_, err = stream.Recv()
		So(err, ShouldEqual, io.EOF)
	})

	Convey("非法分片返回解析错误", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "{broken\n")
		}))
		defer srv.Close()

		stream, err := newTestClient(t, srv.URL).GenerateStream(context.Background(), &GenerateRequest{Model: "llama3.2"})
		So(err, ShouldBeNil)
		defer stream.Close()

		_, err = stream.Recv()
		So(err, ShouldNotBeNil)
		So(err, ShouldNotEqual, io.EOF)
	})

	Convey("连接被拒绝时在发送阶段返回 ErrUnreachable", t, func() {
		_, err := newTestClient(t, closedAddr(t)).GenerateStream(context.Background(), &GenerateRequest{Model: "llama3.2"})
		So(errors.Is(err, ErrUnreachable), ShouldBeTrue)
	})
}

func TestClient_Ping(t *testing.T) {
	Convey("Ping 请求 /api/tags", t, func() {
		var path string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			_, _ = io.WriteString(w, `{"models":[]}`)
		}))
		defer srv.Close()

		So(newTestClient(t, srv.URL).Ping(context.Background()), ShouldBeNil)
		So(path, ShouldEqual, "/api/tags")
	})

	Convey("后端不可达时 Ping 返回 ErrUnreachable", t, func() {
		err := newTestClient(t, closedAddr(t)).Ping(context.Background())
		So(errors.Is(err, ErrUnreachable), ShouldBeTrue)
	})
}

func TestNewClient(t *testing.T) {
	Convey("NewClient 校验地址", t, func() {
		_, err := NewClient(&config.OllamaConfig{BaseURL: "localhost"})
		So(err, ShouldNotBeNil)

		c, err := NewClient(&config.OllamaConfig{BaseURL: "http://localhost:11434/"})
		So(err, ShouldBeNil)
		So(c.BaseURL(), ShouldEqual, "http://localhost:11434")
		So(c.generateURL, ShouldEqual, "http://localhost:11434/api/generate")
	})
}
