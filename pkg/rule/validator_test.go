package rule_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yeisme/filevault/pkg/rule"
)

// TestStruct 用于测试 ValidateStruct.
type TestStruct struct {
	Name string `rule:"required"`
	Age  int    `rule:"gte=18"`
}

// listRequest 模拟列表接口的分页参数.
type listRequest struct {
	Page     int    `form:"page"      rule:"omitempty,min=1"`
	PageSize int    `form:"page_size" rule:"omitempty,min=1,max=200"`
	Type     string `json:"file_type" rule:"omitempty,oneof=image text"`
}

// TestEngine 测试 Engine 函数返回非 nil 实例.
func TestEngine(t *testing.T) {
	engine := rule.Engine()
	if engine == nil {
		t.Error("Engine() returned nil")
	}
}

// TestValidateStruct 测试 ValidateStruct 对有效和无效结构体的验证.
func TestValidateStruct(t *testing.T) {
	// 有效结构体
	validStruct := TestStruct{Name: "John", Age: 25}

	err := rule.ValidateStruct(validStruct)
	if err != nil {
		t.Errorf("Expected no error for valid struct, got %v", err)
	}

	// 无效结构体：缺少 Name
	invalidStruct1 := TestStruct{Name: "", Age: 25}

	err = rule.ValidateStruct(invalidStruct1)
	if err == nil {
		t.Error("Expected error for invalid struct (missing name), got nil")
	}

	// 无效结构体：Age 小于 18
	invalidStruct2 := TestStruct{Name: "Jane", Age: 16}

	err = rule.ValidateStruct(invalidStruct2)
	if err == nil {
		t.Error("Expected error for invalid struct (age < 18), got nil")
	}
}

// TestValidateVar 测试 ValidateVar 对变量的验证.
func TestValidateVar(t *testing.T) {
	// 有效 email
	err := rule.ValidateVar("test@example.com", "required,email")
	if err != nil {
		t.Errorf("Expected no error for valid email, got %v", err)
	}

	// 无效 email
	err = rule.ValidateVar("invalid-email", "required,email")
	if err == nil {
		t.Error("Expected error for invalid email, got nil")
	}

	// 有效数字
	err = rule.ValidateVar(25, "gte=18")
	if err != nil {
		t.Errorf("Expected no error for valid number, got %v", err)
	}

	// 无效数字
	err = rule.ValidateVar(15, "gte=18")
	if err == nil {
		t.Error("Expected error for invalid number, got nil")
	}
}

// TestRegisterValidation 测试注册自定义验证.
func TestRegisterValidation(t *testing.T) {
	// 注册自定义验证：检查字符串长度是否为偶数
	err := rule.RegisterValidation("even_length", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}

		return len(str)%2 == 0
	})
	if err != nil {
		t.Fatalf("Failed to register validation: %v", err)
	}

	// 测试有效字符串
	err = rule.ValidateVar("test", "even_length")
	if err != nil {
		t.Errorf("Expected no error for even length string, got %v", err)
	}

	// 测试无效字符串
	err = rule.ValidateVar("test1", "even_length")
	if err == nil {
		t.Error("Expected error for odd length string, got nil")
	}
}

// TestRegisterAlias 测试注册别名.
func TestRegisterAlias(t *testing.T) {
	rule.RegisterAlias("min_required", "required,min=3")

	// 测试有效字符串
	err := rule.ValidateVar("abc", "min_required")
	if err != nil {
		t.Errorf("Expected no error for valid string with alias, got %v", err)
	}

	// 测试无效字符串
	err = rule.ValidateVar("ab", "min_required")
	if err == nil {
		t.Error("Expected error for invalid string with alias, got nil")
	}
}

// TestErrors 测试错误整理为以标签名为键的字典.
func TestErrors(t *testing.T) {
	err := rule.ValidateStruct(listRequest{Page: 0, PageSize: 500, Type: "video"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	verrs := rule.Errors(err)
	if len(verrs) != 2 {
		t.Fatalf("errors = %v, want 2 entries", verrs)
	}

	if verrs["page_size"] != "must be <= 200" {
		t.Errorf("page_size message = %q", verrs["page_size"])
	}

	if verrs["file_type"] != "must be one of [image text]" {
		t.Errorf("file_type message = %q", verrs["file_type"])
	}

	if rule.Errors(nil) != nil {
		t.Error("Errors(nil) should be nil")
	}

	if rule.ValidateStruct(listRequest{Page: 3, PageSize: 50}) != nil {
		t.Error("valid request rejected")
	}
}

// TestGinBinding gin 的 Query 绑定按 rule 标签校验，且与 Engine 共用实例.
func TestGinBinding(t *testing.T) {
	if binding.Validator.Engine() != rule.Engine() {
		t.Fatal("binding.Validator does not use rule engine")
	}

	cases := []struct {
		query string
		field string
	}{
		{"page=2&page_size=50", ""},
		{"page=-1", "page"},
		{"page_size=500", "page_size"},
	}

	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/files?"+tc.query, nil)

			var lr listRequest

			err := binding.Query.Bind(req, &lr)
			if tc.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				return
			}

			if _, ok := rule.Errors(err)[tc.field]; !ok {
				t.Fatalf("err = %v, want field %q", err, tc.field)
			}
		})
	}

	// 切片与 nil 指针
	if err := binding.Validator.ValidateStruct([]listRequest{{Page: 1}, {Page: -3}}); err == nil {
		t.Error("expected error for slice element")
	}

	var nilReq *listRequest
	if err := binding.Validator.ValidateStruct(nilReq); err != nil {
		t.Errorf("nil pointer: %v", err)
	}
}
