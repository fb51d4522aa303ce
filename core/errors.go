package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 错误分为两条通道：
//   - 致命错误：STARTUP_FAILURE（服务启动）、TRAINING_FAILURE（离线训练），调用方应直接退出
//   - 可恢复错误：INVALID_INPUT（输入校验）、INTERNAL_ERROR（单次推理失败），按请求返回
type DomainError struct {
	Code    string // 错误代码（如 "INVALID_INPUT", "STARTUP_FAILURE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "text", "feature", "model"）
	Err     error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is 按 Module + Code 比较，便于 errors.Is(err, ErrStoreNotFound) 这类哨兵判断。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Code == t.Code
}

// IsDomainError 检查错误链中是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中最外层的 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 创建携带底层错误的领域错误
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound         = "NOT_FOUND"         // 资源不存在
	ErrorCodeNotSupported     = "NOT_SUPPORTED"     // 操作不支持
	ErrorCodeInvalidInput     = "INVALID_INPUT"     // 输入无效（ValidationError）
	ErrorCodeInternalError    = "INTERNAL_ERROR"    // 内部错误（InferenceFailure）
	ErrorCodeStartupFailure   = "STARTUP_FAILURE"   // 启动失败，服务不得接收流量
	ErrorCodeTrainingFailure  = "TRAINING_FAILURE"  // 训练失败，批任务中止
	ErrorCodeArtifactMismatch = "ARTIFACT_MISMATCH" // 向量化器与模型不配套
)

// 模块名称常量
const (
	ModuleText     = "text"     // 文本归一化
	ModuleFeature  = "feature"  // TF-IDF 向量化
	ModuleModel    = "model"    // 分类模型
	ModuleDataset  = "dataset"  // 数据集加载与切分
	ModulePipeline = "pipeline" // 训练流水线
	ModuleArtifact = "artifact" // 模型产物
	ModuleStore    = "store"    // 存储模块
	ModuleService  = "service"  // 推理服务
)

func hasCode(err error, code string) bool {
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Code == code
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }

// IsValidation 检查错误是否为调用方输入错误（可直接展示给用户）
func IsValidation(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

// IsInferenceFailure 检查错误是否为单次推理内部失败
func IsInferenceFailure(err error) bool { return hasCode(err, ErrorCodeInternalError) }

// IsStartupFailure 检查错误是否为启动期致命错误
func IsStartupFailure(err error) bool { return hasCode(err, ErrorCodeStartupFailure) }

// IsTrainingFailure 检查错误是否为训练期致命错误
func IsTrainingFailure(err error) bool { return hasCode(err, ErrorCodeTrainingFailure) }

// IsArtifactMismatch 检查错误链中是否包含产物不配套错误。
// 启动失败会包装底层错误，因此这里沿错误链逐层查找。
func IsArtifactMismatch(err error) bool {
	for err != nil {
		var domainErr *DomainError
		if !errors.As(err, &domainErr) {
			return false
		}
		if domainErr.Code == ErrorCodeArtifactMismatch {
			return true
		}
		err = domainErr.Err
	}
	return false
}
