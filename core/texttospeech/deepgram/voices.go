package deepgram

type deepgramVoice string

const (
	VoiceAgatheFr deepgramVoice = "aura-2-agathe-fr"
	VoiceHectorFr deepgramVoice = "aura-2-hector-fr"
	VoiceThaliaEn deepgramVoice = "aura-2-thalia-en"
	VoiceOrionEn  deepgramVoice = "aura-2-orion-en"

	defaultVoice = VoiceAgatheFr
)

func GetAvailableVoices() []deepgramVoice {
	return []deepgramVoice{
		VoiceAgatheFr,
		VoiceHectorFr,
		VoiceThaliaEn,
		VoiceOrionEn,
	}
}
