package message

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"market_chat_server/internal/dto/request"
	"market_chat_server/internal/dto/respond"
	"market_chat_server/pkg/constants"
	"market_chat_server/pkg/errorx"
)

// 附件访问路径前缀，与 https_server 中的静态目录映射一致
const fileURLPrefix = "/static/files/"

var imageMimes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// SendMessageWithAttachment 保存图片附件后发送消息
// 发送失败时删除已保存的文件
func (s *messageService) SendMessageWithAttachment(ctx context.Context, senderId uint64, req request.SendMessageRequest, file *multipart.FileHeader) (*respond.MessageRespond, error) {
	if file == nil {
		return nil, errorx.New(errorx.CodeInvalidParam, "image is required")
	}
	if senderId == req.ReceiverId {
		return nil, errorx.New(errorx.CodeForbidden, "cannot send message to yourself")
	}
	if file.Size > constants.FILE_MAX_SIZE {
		return nil, errorx.Newf(errorx.CodeInvalidParam, "file too large: %d bytes", file.Size)
	}

	filename, err := s.saveFile(file, imageMimes...)
	if err != nil {
		if errorx.GetCode(err) == errorx.CodeInvalidParam {
			return nil, err
		}
		zap.L().Error("save attachment failed", zap.String("name", file.Filename), zap.Error(err))
		return nil, errorx.Wrap(err, errorx.CodeServerBusy, "save attachment failed")
	}

	req.AttachmentUrl = fileURLPrefix + filename
	rsp, err := s.SendMessage(ctx, senderId, req)
	if err != nil {
		_ = os.Remove(filepath.Join(s.fileDir, filename))
		return nil, err
	}
	zap.L().Info("upload attachment success", zap.String("filename", filename), zap.Int64("size", file.Size))
	return rsp, nil
}

// saveFile 保存上传文件，按 Magic Bytes 校验类型
func (s *messageService) saveFile(fileHeader *multipart.FileHeader, allowedMimes ...string) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	// 读取前 512 字节判断真实类型
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}
	contentType := http.DetectContentType(buffer[:n])
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	if len(allowedMimes) > 0 {
		allowed := false
		for _, mime := range allowedMimes {
			if strings.HasPrefix(contentType, mime) {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", errorx.Newf(errorx.CodeInvalidParam, "invalid file type: %s", contentType)
		}
	}

	if err := os.MkdirAll(s.fileDir, 0o755); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	newFileName := uuid.NewString() + ext

	out, err := os.Create(filepath.Join(s.fileDir, newFileName))
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", err
	}
	return newFileName, nil
}
