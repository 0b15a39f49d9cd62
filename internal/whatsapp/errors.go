package whatsapp

// Cloud API error codes mapped to operator-facing messages, per
// https://developers.facebook.com/docs/whatsapp/cloud-api/support/error-codes
var friendlyMessages = map[string]string{
	"100":            "Credenciales de WhatsApp inválidas. Contacte al administrador.",
	"131026":         "Demasiados mensajes. Espere un momento antes de reintentar.",
	"131031":         "Número de teléfono no válido.",
	"131032":         "El número no tiene WhatsApp.",
	"131047":         "Fuera de la ventana de 24 horas. El usuario debe escribir primero.",
	"131048":         "Plantilla rechazada o no aprobada.",
	"131051":         "Parámetro de plantilla inválido.",
	"132000":         "Número de teléfono inválido.",
	"132005":         "Número no registrado en WhatsApp.",
	"132068":         "Mensaje duplicado o ya enviado recientemente.",
	"133016":         "Límite de tasa excedido. Espere antes de reintentar.",
	CodeNetworkError: "Error de red al contactar WhatsApp. Reintente más tarde.",
	CodeParseError:   "Respuesta inválida del servidor de WhatsApp.",
	CodeUnknown:      "Error desconocido de WhatsApp.",
}

// FriendlyMessage translates a provider error code into a message suitable
// for the UI, falling back to the raw provider message.
func FriendlyMessage(errorCode, rawMessage string) string {
	if msg, ok := friendlyMessages[errorCode]; ok {
		return msg
	}
	if rawMessage != "" {
		return rawMessage
	}
	return "Error al enviar el mensaje."
}
