package apiserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"aura-go/internal/config"
	"aura-go/internal/services"
)

const defaultMaxMemory = 32 << 20 // multipart 表单在内存中保留的上限

// ProfileHandler 封装了个人资料与全局排行榜相关的 HTTP 处理器方法。
type ProfileHandler struct {
	profileService services.ProfileService
	cfg            config.StorageConfig
}

// NewProfileHandler 创建一个新的 ProfileHandler 实例。
func NewProfileHandler(profileService services.ProfileService, cfg config.StorageConfig) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, cfg: cfg}
}

// UpdateProfileRequest 是 PUT /profiles/me 的请求体。
type UpdateProfileRequest struct {
	Avatar string `json:"avatar" validate:"omitempty,url,max=2048"`
}

// GetMe handles GET /api/v1/profiles/me. The profile is created on first sight.
func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	profile, err := h.profileService.EnsureProfile(r.Context(), sess)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, profile)
}

// UpdateMe handles PUT /api/v1/profiles/me.
func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	profile, err := h.profileService.SetAvatarURL(r.Context(), sess.UserID, req.Avatar)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, profile)
}

// Search handles GET /api/v1/profiles/search?query=.
func (h *ProfileHandler) Search(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	results, err := h.profileService.SearchProfiles(r.Context(), r.URL.Query().Get("query"), sess.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, results)
}

// UploadAvatar handles POST /api/v1/profiles/me/avatar with a multipart "file" field.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	maxUploadSize := h.cfg.MaxFileSizeMB << 20
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxMemory
	}
	// 留出 multipart 边界和表头的余量，文件本身的大小由 service 校验
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)

	if err := r.ParseMultipartForm(defaultMaxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg := fmt.Sprintf("上传文件过大，最大允许 %d MB", maxUploadSize>>20)
			writeJSONError(w, msg, categoryValidation, http.StatusRequestEntityTooLarge)
		} else {
			writeJSONError(w, "解析表单失败: "+err.Error(), categoryValidation, http.StatusBadRequest)
		}
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			writeJSONError(w, "请求中缺少 'file' 字段", categoryValidation, http.StatusBadRequest)
		} else {
			writeJSONError(w, "获取文件失败: "+err.Error(), categoryValidation, http.StatusBadRequest)
		}
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	logrus.WithFields(logrus.Fields{
		"user_id":   sess.UserID,
		"file_name": header.Filename,
		"size":      header.Size,
		"mime_type": mimeType,
	}).Info("avatar upload received")

	profile, err := h.profileService.UpdateAvatar(r.Context(), sess.UserID, file, header.Size, header.Filename, mimeType)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, profile)
}

// GlobalLeaderboard handles GET /api/v1/leaderboard/global.
func (h *ProfileHandler) GlobalLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.profileService.GlobalLeaderboard(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, entries)
}
