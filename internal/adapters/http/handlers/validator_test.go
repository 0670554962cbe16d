package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	SetupValidator() // Ensure validators are registered
}

// ============================================
// Test Custom Validators
// ============================================

func TestValidateAssetCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetupValidator()

	type TestRequest struct {
		AssetCode string `json:"asset_code" binding:"required,asset_code"`
	}

	bindRouter := func() *gin.Engine {
		router := gin.New()
		router.POST("/test", func(c *gin.Context) {
			var req TestRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(400, gin.H{"error": err.Error()})
				return
			}
			c.JSON(200, gin.H{"asset_code": req.AssetCode})
		})
		return router
	}

	t.Run("ValidCodes", func(t *testing.T) {
		router := bindRouter()

		validCodes := []string{"GOLD_COIN", "DIAMOND", "LOYALTY_POINT", "gold", "X1"}
		for _, code := range validCodes {
			body, _ := json.Marshal(TestRequest{AssetCode: code})
			req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code, "Code %s should be valid", code)
		}
	})

	t.Run("InvalidCodes", func(t *testing.T) {
		router := bindRouter()

		invalidCodes := []string{"GOLD COIN", "GOLD-COIN", "кошелёк", strings.Repeat("A", 51)}
		for _, code := range invalidCodes {
			body, _ := json.Marshal(TestRequest{AssetCode: code})
			req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code, "Code %q should be invalid", code)
		}
	})
}

func TestValidateMoneyAmount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetupValidator()

	type TestRequest struct {
		Amount string `json:"amount" binding:"required,money_amount"`
	}

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req TestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"amount": req.Amount})
	})

	tests := []struct {
		amount string
		want   int
	}{
		{"100", http.StatusOK},
		{"100.5", http.StatusOK},
		{"100.50", http.StatusOK},
		{"0.01", http.StatusOK},
		{"999999999.99", http.StatusOK},
		{"100.555", http.StatusBadRequest}, // больше 2 знаков
		{"-100", http.StatusBadRequest},
		{"100,50", http.StatusBadRequest},
		{".50", http.StatusBadRequest},
		{"abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		body, _ := json.Marshal(TestRequest{Amount: tt.amount})
		req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, tt.want, w.Code, "amount %q", tt.amount)
	}
}

func TestValidateTransactionType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetupValidator()

	type TestRequest struct {
		Type string `json:"type" binding:"required,transaction_type"`
	}

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req TestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"type": req.Type})
	})

	for _, txType := range []string{"TOPUP", "BONUS", "SPEND"} {
		body, _ := json.Marshal(TestRequest{Type: txType})
		req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "type %s should be valid", txType)
	}

	for _, txType := range []string{"TRANSFER", "topup", "REFUND", ""} {
		body, _ := json.Marshal(TestRequest{Type: txType})
		req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "type %q should be invalid", txType)
	}
}

// ============================================
// Test History Window
// ============================================

func TestParseHistoryWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newContext := func(query string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/test"+query, nil)
		return c
	}

	t.Run("Defaults", func(t *testing.T) {
		window := ParseHistoryWindow(newContext(""))

		// Нормализацию до default 50 выполняет use case
		assert.Equal(t, 0, window.Limit)
		assert.Equal(t, 0, window.Offset)
	})

	t.Run("ExplicitValues", func(t *testing.T) {
		window := ParseHistoryWindow(newContext("?limit=25&offset=100"))

		assert.Equal(t, 25, window.Limit)
		assert.Equal(t, 100, window.Offset)
	})

	t.Run("GarbageValues", func(t *testing.T) {
		window := ParseHistoryWindow(newContext("?limit=abc&offset=-5"))

		assert.Equal(t, 0, window.Limit)
		assert.Equal(t, 0, window.Offset)
	})
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"0", 0},
		{"42", 42},
		{"100", 100},
		{"", 0},
		{"abc", 0},
		{"-5", 0},
		{"1.5", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseInt(tt.input), "input %q", tt.input)
	}
}

// ============================================
// Test Bind Helpers
// ============================================

func TestBindJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetupValidator()

	type TestRequest struct {
		Name string `json:"name" binding:"required,min=2"`
	}

	t.Run("Success", func(t *testing.T) {
		router := gin.New()
		router.POST("/test", func(c *gin.Context) {
			var req TestRequest
			if !BindJSON(c, &req) {
				return
			}
			c.JSON(200, gin.H{"name": req.Name})
		})

		body := []byte(`{"name":"Alice"}`)
		req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ValidationError", func(t *testing.T) {
		router := gin.New()
		router.POST("/test", func(c *gin.Context) {
			var req TestRequest
			if !BindJSON(c, &req) {
				return
			}
			c.JSON(200, gin.H{"name": req.Name})
		})

		body := []byte(`{"name":"A"}`)
		req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		// Имя поля берётся из json tag
		assert.Contains(t, w.Body.String(), "name")
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		router := gin.New()
		router.POST("/test", func(c *gin.Context) {
			var req TestRequest
			if !BindJSON(c, &req) {
				return
			}
			c.JSON(200, gin.H{"name": req.Name})
		})

		req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBindURI(t *testing.T) {
	gin.SetMode(gin.TestMode)

	type URIParams struct {
		UserID string `uri:"user_id" binding:"required,max=100"`
	}

	router := gin.New()
	router.GET("/users/:user_id", func(c *gin.Context) {
		var params URIParams
		if !BindURI(c, &params) {
			return
		}
		c.JSON(200, gin.H{"user_id": params.UserID})
	})

	req := httptest.NewRequest(http.MethodGet, "/users/alice", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestBindQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	type QueryParams struct {
		AssetCode string `form:"asset_code" binding:"required"`
	}

	t.Run("Success", func(t *testing.T) {
		router := gin.New()
		router.GET("/test", func(c *gin.Context) {
			var params QueryParams
			if !BindQuery(c, &params) {
				return
			}
			c.JSON(200, gin.H{"asset_code": params.AssetCode})
		})

		req := httptest.NewRequest(http.MethodGet, "/test?asset_code=GOLD_COIN", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("MissingRequired", func(t *testing.T) {
		router := gin.New()
		router.GET("/test", func(c *gin.Context) {
			var params QueryParams
			if !BindQuery(c, &params) {
				return
			}
			c.JSON(200, gin.H{"asset_code": params.AssetCode})
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
