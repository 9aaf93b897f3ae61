package llm

const describePrompt = `You are an image analysis system. Describe the attached image.

Determine:
- caption: one clear sentence describing what the image shows
- classification: one of "photo", "screenshot", "illustration", "diagram", "icon", "document", "animation", "other"
- face_count: number of human faces visible (0 if none)
- is_monochrome: true if the image is grayscale or effectively single-hue
- saturation_estimate: overall color saturation from 0.0 (gray) to 1.0 (vivid)
- tags: up to 5 short lowercase descriptive tags
- confidence: 0.0-1.0 how confident you are in this description overall

Respond ONLY with JSON, no markdown fences:
{"caption":"a red bicycle leaning against a brick wall","classification":"photo","face_count":0,"is_monochrome":false,"saturation_estimate":0.6,"tags":["bicycle","wall","outdoor"],"confidence":0.9}`

const extractTextPrompt = `Read all visible text out of the attached image, in natural reading order. Preserve line breaks between separate lines of text.

Respond ONLY with JSON, no markdown fences:
{"text":"the extracted text","confidence":0.8}

confidence is 0.0-1.0: how legible and complete the extraction is.
If the image contains no readable text, respond with {"text":"","confidence":1.0}.`

const summarizePrompt = `You are an image analysis summarizer. An image was analyzed by several independent passes; their findings are listed below, one per line, as "key = value (confidence, source)".

Findings for %s:
%s

Write a 2-3 sentence summary of what the image most likely is. Weight high-confidence findings more heavily, and mention any disagreement between findings.

Respond with ONLY the summary text. No explanation, no formatting.`
