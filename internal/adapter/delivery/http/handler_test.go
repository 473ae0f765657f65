package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/vadimbarashkov/shortlink/internal/entity"

	httpMock "github.com/vadimbarashkov/shortlink/mocks/http"
)

type HandlersTestSuite struct {
	suite.Suite
	logger         *httplog.Logger
	createdAt      time.Time
	urlUseCaseMock *httpMock.MockUrlUseCase
	server         *httptest.Server
	e              *httpexpect.Expect
}

func (suite *HandlersTestSuite) SetupSuite() {
	suite.logger = httplog.NewLogger("", httplog.Options{Writer: io.Discard})
	suite.createdAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func (suite *HandlersTestSuite) SetupSubTest() {
	suite.urlUseCaseMock = httpMock.NewMockUrlUseCase(suite.T())

	router := NewRouter(suite.logger, suite.urlUseCaseMock)
	suite.server = httptest.NewServer(router)
	suite.T().Cleanup(func() {
		suite.server.Close()
	})

	suite.e = httpexpect.Default(suite.T(), suite.server.URL)
}

func (suite *HandlersTestSuite) stored(shortCode string, clicks int64) *entity.URL {
	return &entity.URL{
		ShortCode:   shortCode,
		OriginalURL: "https://example.com",
		Clicks:      clicks,
		CreatedAt:   suite.createdAt,
	}
}

func (suite *HandlersTestSuite) TestPing() {
	const path = "/api/ping"

	suite.Run("success", func() {
		suite.e.GET(path).
			Expect().
			Status(http.StatusOK).
			Text().IsEqual("pong")
	})
}

func (suite *HandlersTestSuite) TestShortenURL() {
	const path = "/api/shorten"

	suite.Run("empty request body", func() {
		resp := suite.e.POST(path).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.HasValue("message", "empty request body")
	})

	suite.Run("invalid request body", func() {
		resp := suite.e.POST(path).
			WithJSON("invalid body").
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.HasValue("message", "invalid request body")
	})

	suite.Run("missing original url", func() {
		resp := suite.e.POST(path).
			WithJSON(map[string]string{"custom_code": "abc"}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.Value("errors").Array().Value(0).Object().
			HasValue("field", "original_url").
			ContainsKey("message")
	})

	suite.Run("custom code too long", func() {
		resp := suite.e.POST(path).
			WithJSON(map[string]string{
				"original_url": "https://example.com",
				"custom_code":  strings.Repeat("a", 33),
			}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.Value("errors").Array().Value(0).Object().
			HasValue("field", "custom_code").
			HasValue("message", "value is too long")
	})

	suite.Run("invalid url", func() {
		suite.urlUseCaseMock.
			On("ShortenURL", mock.Anything, "not-a-url", "").
			Once().
			Return(nil, fmt.Errorf("usecase: %w", entity.ErrInvalidURL))

		resp := suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "not-a-url"}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("message", "validation error")
		resp.Value("errors").Array().Value(0).Object().
			HasValue("field", "original_url")
	})

	suite.Run("invalid custom code", func() {
		suite.urlUseCaseMock.
			On("ShortenURL", mock.Anything, "https://example.com", "a b").
			Once().
			Return(nil, fmt.Errorf("usecase: %w", entity.ErrInvalidShortCode))

		resp := suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "https://example.com", "custom_code": "a b"}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.Value("errors").Array().Value(0).Object().
			HasValue("field", "custom_code")
	})

	suite.Run("short code exists", func() {
		suite.urlUseCaseMock.
			On("ShortenURL", mock.Anything, "https://example.com", "abc").
			Once().
			Return(nil, entity.ErrShortCodeExists)

		resp := suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "https://example.com", "custom_code": "abc"}).
			Expect().
			Status(http.StatusConflict).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.HasValue("message", "short code already exists")
	})

	suite.Run("code space exhausted", func() {
		suite.urlUseCaseMock.
			On("ShortenURL", mock.Anything, "https://example.com", "").
			Once().
			Return(nil, entity.ErrCodeSpaceExhausted)

		suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "https://example.com"}).
			Expect().
			Status(http.StatusServiceUnavailable).
			JSON().Object().
			HasValue("status", "error")
	})

	suite.Run("server error", func() {
		suite.urlUseCaseMock.
			On("ShortenURL", mock.Anything, "https://example.com", "").
			Once().
			Return(nil, errors.New("unknown error"))

		resp := suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "https://example.com"}).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.ContainsKey("message")
	})

	suite.Run("success", func() {
		suite.urlUseCaseMock.
			On("ShortenURL", mock.Anything, "https://example.com", "abc").
			Once().
			Return(&entity.ShortenedURL{
				URL: entity.URL{
					ShortCode:   "abc",
					OriginalURL: "https://example.com",
					CreatedAt:   suite.createdAt,
					IsCustom:    true,
				},
				ShortURL: "http://localhost:8080/abc",
				QRCode:   "data:image/png;base64,AAAA",
			}, nil)

		resp := suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "https://example.com", "custom_code": "abc"}).
			Expect().
			Status(http.StatusCreated).
			JSON().Object()

		resp.HasValue("short_code", "abc")
		resp.HasValue("original_url", "https://example.com")
		resp.HasValue("short_url", "http://localhost:8080/abc")
		resp.HasValue("qr_code", "data:image/png;base64,AAAA")
		resp.HasValue("clicks", 0)
		resp.HasValue("is_custom", true)
		resp.ContainsKey("created_at")
		resp.NotContainsKey("warnings")
	})

	suite.Run("success with warnings", func() {
		suite.urlUseCaseMock.
			On("ShortenURL", mock.Anything, "https://example.com", "").
			Once().
			Return(&entity.ShortenedURL{
				URL:      *suite.stored("abc123", 0),
				ShortURL: "http://localhost:8080/abc123",
				Warnings: []string{"qr code generation failed"},
			}, nil)

		resp := suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "https://example.com"}).
			Expect().
			Status(http.StatusCreated).
			JSON().Object()

		resp.NotContainsKey("qr_code")
		resp.Value("warnings").Array().ConsistsOf("qr code generation failed")
	})
}

func (suite *HandlersTestSuite) TestRedirect() {
	for _, path := range []string{"/%s", "/api/%s"} {
		suite.Run("url not found "+path, func() {
			suite.urlUseCaseMock.
				On("ResolveShortCode", mock.Anything, "abc123").
				Once().
				Return(nil, entity.ErrURLNotFound)

			resp := suite.e.GET(fmt.Sprintf(path, "abc123")).
				WithRedirectPolicy(httpexpect.DontFollowRedirects).
				Expect().
				Status(http.StatusNotFound).
				JSON().Object()

			resp.HasValue("status", "error")
			resp.HasValue("message", "url not found")
		})

		suite.Run("server error "+path, func() {
			suite.urlUseCaseMock.
				On("ResolveShortCode", mock.Anything, "abc123").
				Once().
				Return(nil, errors.New("unknown error"))

			suite.e.GET(fmt.Sprintf(path, "abc123")).
				WithRedirectPolicy(httpexpect.DontFollowRedirects).
				Expect().
				Status(http.StatusInternalServerError)
		})

		suite.Run("success "+path, func() {
			suite.urlUseCaseMock.
				On("ResolveShortCode", mock.Anything, "abc123").
				Once().
				Return(suite.stored("abc123", 1), nil)

			suite.e.GET(fmt.Sprintf(path, "abc123")).
				WithRedirectPolicy(httpexpect.DontFollowRedirects).
				Expect().
				Status(http.StatusTemporaryRedirect).
				Header("Location").IsEqual("https://example.com")
		})
	}
}

func (suite *HandlersTestSuite) TestListURLs() {
	const path = "/api/urls"

	suite.Run("server error", func() {
		suite.urlUseCaseMock.
			On("ListURLs", mock.Anything).
			Once().
			Return(nil, errors.New("unknown error"))

		suite.e.GET(path).
			Expect().
			Status(http.StatusInternalServerError)
	})

	suite.Run("empty", func() {
		suite.urlUseCaseMock.
			On("ListURLs", mock.Anything).
			Once().
			Return([]*entity.ShortenedURL{}, nil)

		suite.e.GET(path).
			Expect().
			Status(http.StatusOK).
			JSON().Array().IsEmpty()
	})

	suite.Run("success", func() {
		suite.urlUseCaseMock.
			On("ListURLs", mock.Anything).
			Once().
			Return([]*entity.ShortenedURL{
				{URL: *suite.stored("new", 3), ShortURL: "http://localhost:8080/new"},
				{URL: *suite.stored("old", 0), ShortURL: "http://localhost:8080/old"},
			}, nil)

		arr := suite.e.GET(path).
			Expect().
			Status(http.StatusOK).
			JSON().Array()

		arr.Length().IsEqual(2)
		arr.Value(0).Object().HasValue("short_code", "new").HasValue("clicks", 3)
		arr.Value(1).Object().HasValue("short_url", "http://localhost:8080/old")
	})
}

func (suite *HandlersTestSuite) TestDeleteURL() {
	const path = "/api/urls/%s"

	suite.Run("url not found", func() {
		suite.urlUseCaseMock.
			On("DeleteURL", mock.Anything, "abc123").
			Once().
			Return(entity.ErrURLNotFound)

		suite.e.DELETE(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusNotFound).
			JSON().Object().
			HasValue("status", "error")
	})

	suite.Run("server error", func() {
		suite.urlUseCaseMock.
			On("DeleteURL", mock.Anything, "abc123").
			Once().
			Return(errors.New("unknown error"))

		suite.e.DELETE(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusInternalServerError)
	})

	suite.Run("success", func() {
		suite.urlUseCaseMock.
			On("DeleteURL", mock.Anything, "abc123").
			Once().
			Return(nil)

		suite.e.DELETE(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusNoContent).
			NoContent()
	})
}

func (suite *HandlersTestSuite) TestGetURLStats() {
	const path = "/api/stats/%s"

	suite.Run("url not found", func() {
		suite.urlUseCaseMock.
			On("GetURLStats", mock.Anything, "abc123").
			Once().
			Return(nil, entity.ErrURLNotFound)

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusNotFound)
	})

	suite.Run("success", func() {
		suite.urlUseCaseMock.
			On("GetURLStats", mock.Anything, "abc123").
			Once().
			Return(suite.stored("abc123", 5), nil)

		resp := suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		resp.HasValue("short_code", "abc123")
		resp.HasValue("original_url", "https://example.com")
		resp.HasValue("clicks", 5)
		resp.ContainsKey("created_at")
		resp.NotContainsKey("short_url")
	})
}

func (suite *HandlersTestSuite) TestQRCode() {
	const path = "/api/urls/%s/qr"

	suite.Run("url not found", func() {
		suite.urlUseCaseMock.
			On("QRCode", mock.Anything, "abc123").
			Once().
			Return(nil, entity.ErrURLNotFound)

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusNotFound)
	})

	suite.Run("success", func() {
		png := []byte("\x89PNG\r\n\x1a\n")

		suite.urlUseCaseMock.
			On("QRCode", mock.Anything, "abc123").
			Once().
			Return(png, nil)

		resp := suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusOK)

		resp.Header("Content-Type").IsEqual("image/png")
		resp.Body().IsEqual(string(png))
	})
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
