package config

type Chat struct{}

var _ ChatConfig = Chat{}

// GetHFToken returns the inference API credential. Empty selects the local responder.
func (Chat) GetHFToken() string {
	return GetEnv("HF_TOKEN", "")
}

func (Chat) GetHFModel() string {
	return GetEnv("HF_MODEL", "gpt2")
}

func (Chat) GetInferenceURL() string {
	return GetEnv("HF_INFERENCE_URL", "https://api-inference.huggingface.co")
}

// GetChatRatePerSecond bounds /api/chat requests per client IP.
func (Chat) GetChatRatePerSecond() float64 {
	return GetFloat("CHAT_REQUESTS_PER_SECOND", 2)
}
