package relay

import "strings"

// DefaultStyle is the sentinel meaning the caller did not constrain the style.
const DefaultStyle = "auto"

const (
	// DefaultImagePrompt is used when the caller does not supply a regeneration prompt.
	DefaultImagePrompt = "Generate a creative version of the input image"
	// DefaultVideoPrompt is used when the caller does not supply a video prompt.
	DefaultVideoPrompt = "generate a creative video according to the input image"
)

const analysisInstruction = `你是一位专业的艺术分析师和创意指导师。请分析用户上传的手绘作品，并提供专业的艺术建议。

任务说明：
1. 仔细观察用户的手绘作品，理解其创作意图
2. 基于作品特征，提供合适的艺术风格和创作建议
3. 基于作品特征, 提供用来生成视频的合适提示词
4. 如果有用户补充说明, 请严格遵循用户意图, 并在输出中明确展示用户的补充说明

分析步骤：
- 识别画面主体元素（人物、物体、场景等）
- 分析线条特征、构图方式和整体氛围
- 推测用户的创作意图和想要表达的内容
- 根据作品特点推荐合适的艺术风格
- 建议适合的背景设置、色彩方案和构图优化

输出格式(JSON)
{
  "image_prompt": "基于用户手绘作品生成的完整英文描述，包含：主体描述 + 推荐的艺术风格 + 建议的背景和氛围 + 构图建议 + 色彩方案等，形成一个连贯的段落",
  "video_prompt": "基于作品提供一个视频生成的英文提示词，包含：主体描述 + 与作品一致的风格 + 建议的背景和氛围 + 动作 + 镜头移动 + 合适的配乐, 声音或语音, 形成一个连贯的段落",
  "cn_description": "用户绘画作品的中文描述，包括：画面主体、构图特点、线条风格、整体印象等",
  "cn_style": "推荐的艺术风格，如写实、水彩风格、油画风格、动漫风格、极简主义、印象派等"
}

注意事项：
- 保持专业且友好的语气
- 描述要具体且富有想象力
- 英文prompt要适合AI绘画工具使用
- 风格建议要符合原作品的特点`

const (
	styleClausePrefix = "User only accepts this style: "
	notesClausePrefix = "Supplementary notes from the user: "
)

// BuildUnderstandInstruction assembles the analysis instruction. A style other than
// DefaultStyle is pinned ahead of the base text; notes are appended verbatim after it.
func BuildUnderstandInstruction(style, notes string) string {
	instruction := analysisInstruction

	style = strings.TrimSpace(style)
	if style != "" && style != DefaultStyle {
		instruction = styleClausePrefix + style + "\n\n" + instruction
	}
	if notes != "" {
		instruction = instruction + "\n\n" + notesClausePrefix + notes
	}

	return instruction
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
