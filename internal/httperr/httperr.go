package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Conflict(c *gin.Context, code, message string) {
	Write(c, http.StatusConflict, code, message)
}

func Forbidden(c *gin.Context, code, message string) {
	Write(c, http.StatusForbidden, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

// Respond traduz o erro de um use case para a resposta HTTP.
func Respond(c *gin.Context, err error) {
	_ = c.Error(err)

	var be BusinessError
	if errors.As(err, &be) {
		switch be.Code {
		case CodeSlotUnavailable:
			Conflict(c, be.Code, "Horário indisponível.")
		case CodeSlotOverlap:
			Conflict(c, be.Code, "Horários sobrepostos a slots existentes.")
		case CodePlanNotEligible:
			Forbidden(c, be.Code, "Seu plano não permite agendamentos.")
		case CodeQuotaExceeded:
			Forbidden(c, be.Code, "Limite de agendamentos do período atingido.")
		case CodeNotFound:
			NotFound(c, be.Code, "Agendamento não encontrado.")
		case CodeProviderNotFound:
			NotFound(c, be.Code, "Profissional não encontrado.")
		default:
			BadRequest(c, be.Code, "Dados inválidos.")
		}
		return
	}

	var fe FailureError
	if errors.As(err, &fe) {
		switch fe.Code {
		case CodeInconsistentState:
			Internal(c, fe.Code, "Estado inconsistente, contate o suporte.")
		case CodeCancellationFailed:
			Internal(c, fe.Code, "Erro ao cancelar agendamento.")
		default:
			Internal(c, fe.Code, "Erro ao criar agendamento.")
		}
		return
	}

	Internal(c, "internal_error", "Erro interno.")
}
