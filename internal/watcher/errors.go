package watcher

import (
	"context"
	"errors"

	"github.com/KruglovEgor/RestoStats/internal/domain"
)

// Сообщения, которые видит пользователь дашборда
const (
	MsgRateLimited     = "Trop de requêtes. Veuillez patienter avant de réessayer."
	MsgTooManyRequests = "Trop de requêtes simultanées. Veuillez patienter quelques secondes."
	MsgUnauthorized    = "Non autorisé. Veuillez vous reconnecter."
	MsgNotFound        = "Endpoint non trouvé. Vérifiez la configuration du serveur."
	msgGenericPrefix   = "Erreur lors du chargement des statistiques: "
)

// ClassifyError переводит ошибку загрузки в сообщение для пользователя
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrRateLimited):
		return MsgRateLimited
	case errors.Is(err, domain.ErrTooManyRequests):
		return MsgTooManyRequests
	case errors.Is(err, domain.ErrUnauthorized):
		return MsgUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return MsgNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return msgGenericPrefix + "délai d'attente dépassé"
	default:
		return msgGenericPrefix + err.Error()
	}
}
