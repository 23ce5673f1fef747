package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"medpredict/artifact"
	"medpredict/db"
	"medpredict/ml"
	"medpredict/monitoring"
	"medpredict/pipeline"
)

const (
	defaultPredictionLimit = 50
	maxPredictionLimit     = 500
)

// API 预测服务处理器
type API struct {
	pipeline *pipeline.Pipeline
	store    *artifact.Store
	metrics  *monitoring.MetricsCollector
	hub      *monitoring.WebSocketHub
	log      *db.PredictionLog
	logger   *zap.Logger
}

// Register 注册所有路由
func (a *API) Register(mux *http.ServeMux) {
	// 预测接口
	mux.HandleFunc("POST /predict/{condition}", a.handlePredict)
	mux.HandleFunc("/predict/{condition}", a.handleMethodNotAllowed)

	// 运维接口
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("GET /api/conditions", a.handleConditions)
	mux.HandleFunc("GET /api/models", a.handleModels)
	mux.HandleFunc("POST /api/models/reload", a.handleReload)
	mux.HandleFunc("GET /api/metrics", a.handleMetrics)
	mux.HandleFunc("GET /api/predictions", a.handlePredictions)
	mux.HandleFunc("GET /api/ws/predictions", a.handleWebSocket)

	// 其余路径统一返回JSON错误
	mux.HandleFunc("/", a.handleNotFound)
}

// PredictionEvent 推送到WebSocket的预测事件
type PredictionEvent struct {
	RequestID    string       `json:"request_id"`
	Condition    ml.Condition `json:"condition"`
	Prediction   int          `json:"prediction"`
	Confidence   float64      `json:"confidence"`
	ModelVersion uint64       `json:"model_version"`
	Cached       bool         `json:"cached"`
	Timestamp    time.Time    `json:"timestamp"`
}

// ConditionInfo 条件及其特征说明
type ConditionInfo struct {
	Condition ml.Condition `json:"condition"`
	Title     string       `json:"title"`
	Fields    []ml.Field   `json:"fields"`
}

func (a *API) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// 条件名不区分大小写，未知条件在读取请求体之前返回
	name := strings.ToLower(r.PathValue("condition"))
	c, err := ml.ParseCondition(name)
	if err != nil {
		a.fail(w, r, "unknown", &pipeline.UnknownConditionError{Name: name}, start)
		return
	}

	payload, err := pipeline.DecodePayload(r.Body)
	if err != nil {
		a.fail(w, r, c.String(), err, start)
		return
	}

	result, err := a.pipeline.Predict(r.Context(), c, payload)
	if err != nil {
		a.fail(w, r, c.String(), err, start)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"prediction": result.Prediction})
	a.metrics.RecordRequest(c.String(), pipeline.Outcome(nil), time.Since(start))
	a.record(r.Context(), result)
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, condition string, err error, start time.Time) {
	status := pipeline.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("prediction failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("condition", condition),
			zap.Error(err),
		)
	} else {
		a.logger.Debug("prediction rejected",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("condition", condition),
			zap.Error(err),
		)
	}
	a.metrics.RecordRequest(condition, pipeline.Outcome(err), time.Since(start))
	errorResponse(w, status, pipeline.PublicMessage(err))
}

// record 将成功的预测写入指标、预测日志和WebSocket
func (a *API) record(ctx context.Context, result *pipeline.Result) {
	requestID := GetRequestID(ctx)
	a.metrics.RecordPrediction(result.Condition.String(), result.Prediction, result.Cached)

	if a.log != nil {
		rec := &db.PredictionRecord{
			RequestID:    requestID,
			Condition:    result.Condition.String(),
			Prediction:   result.Prediction,
			Confidence:   result.Confidence,
			Features:     result.Features,
			ModelVersion: result.ModelVersion,
			Cached:       result.Cached,
		}
		if err := a.log.Save(context.WithoutCancel(ctx), rec); err != nil {
			a.logger.Warn("failed to save prediction", zap.String("request_id", requestID), zap.Error(err))
		}
	}

	if a.hub != nil {
		event := PredictionEvent{
			RequestID:    requestID,
			Condition:    result.Condition,
			Prediction:   result.Prediction,
			Confidence:   result.Confidence,
			ModelVersion: result.ModelVersion,
			Cached:       result.Cached,
			Timestamp:    time.Now(),
		}
		if err := a.hub.Publish(monitoring.PredictionEvent, result.Condition.String(), event); err != nil {
			a.logger.Warn("failed to publish prediction", zap.Error(err))
		}
	}
}

// handleMethodNotAllowed 预测接口只接受POST
func (a *API) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func (a *API) handleNotFound(w http.ResponseWriter, r *http.Request) {
	errorResponse(w, http.StatusNotFound, "Not found")
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleConditions(w http.ResponseWriter, r *http.Request) {
	infos := make([]ConditionInfo, 0, len(ml.Conditions()))
	for _, c := range ml.Conditions() {
		fields, err := ml.Fields(c)
		if err != nil {
			errorResponse(w, http.StatusInternalServerError, pipeline.InternalErrorMessage)
			return
		}
		infos = append(infos, ConditionInfo{Condition: c, Title: c.Title(), Fields: fields})
	}
	respondJSON(w, http.StatusOK, infos)
}

func (a *API) handleModels(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, a.store.Status())
}

// handleReload 重新加载模型文件，可通过condition参数指定单个条件
func (a *API) handleReload(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("condition")
	if name == "" {
		statuses := a.store.Load(r.Context())
		a.publishStatus(statuses)
		respondJSON(w, http.StatusOK, statuses)
		return
	}

	c, err := ml.ParseCondition(name)
	if err != nil {
		errorResponse(w, http.StatusNotFound, (&pipeline.UnknownConditionError{Name: strings.ToLower(name)}).Error())
		return
	}
	if err := a.store.Reload(r.Context(), c); err != nil {
		a.logger.Warn("reload failed", zap.String("condition", c.String()), zap.Error(err))
	}
	statuses := a.store.Status()
	a.publishStatus(statuses)
	respondJSON(w, http.StatusOK, statuses)
}

func (a *API) publishStatus(statuses []artifact.Status) {
	if a.hub == nil {
		return
	}
	if err := a.hub.Publish(monitoring.ModelStatus, "", statuses); err != nil {
		a.logger.Warn("failed to publish model status", zap.Error(err))
	}
}

// handleMetrics 返回预测指标，format=prometheus时输出文本格式
func (a *API) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "prometheus" {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, a.metrics.ExportPrometheus())
		return
	}
	respondJSON(w, http.StatusOK, a.metrics.Snapshot())
}

// handlePredictions 查询最近的预测记录
func (a *API) handlePredictions(w http.ResponseWriter, r *http.Request) {
	if a.log == nil {
		errorResponse(w, http.StatusNotFound, "Prediction log is disabled")
		return
	}

	condition := ""
	if name := r.URL.Query().Get("condition"); name != "" {
		c, err := ml.ParseCondition(name)
		if err != nil {
			errorResponse(w, http.StatusNotFound, (&pipeline.UnknownConditionError{Name: strings.ToLower(name)}).Error())
			return
		}
		condition = c.String()
	}

	limit := defaultPredictionLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			errorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid limit: %s", limitStr))
			return
		}
		limit = min(l, maxPredictionLimit)
	}

	records, err := a.log.Recent(r.Context(), condition, limit)
	if err != nil {
		a.logger.Error("query predictions failed", zap.Error(err))
		errorResponse(w, http.StatusInternalServerError, pipeline.InternalErrorMessage)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"condition":   condition,
		"count":       len(records),
		"predictions": records,
	})
}

func (a *API) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if a.hub == nil {
		errorResponse(w, http.StatusNotFound, "Prediction feed is disabled")
		return
	}
	a.hub.HandleWebSocket(w, r)
}

// respondJSON 统一JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// errorResponse 错误响应
func errorResponse(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
