package xtts

const scriptName = "xtts_synth.py"

// synthScript loads XTTS v2 once per invocation and writes a single WAV.
const synthScript = `import argparse
import sys

import torch
from TTS.api import TTS


def pick_device(name):
    if name == "cuda" or (name == "auto" and torch.cuda.is_available()):
        return "cuda"
    return "cpu"


def main():
    p = argparse.ArgumentParser()
    p.add_argument("--model", required=True)
    p.add_argument("--text_file", required=True)
    p.add_argument("--language", required=True)
    p.add_argument("--out", required=True)
    p.add_argument("--device", default="auto")
    p.add_argument("--speaker_wav")
    p.add_argument("--speaker")
    args = p.parse_args()

    with open(args.text_file, encoding="utf-8") as f:
        text = f.read().strip()
    if not text:
        print("empty text", file=sys.stderr)
        return 2

    tts = TTS(args.model).to(pick_device(args.device))
    kwargs = {"text": text, "language": args.language, "file_path": args.out}
    if args.speaker_wav:
        kwargs["speaker_wav"] = args.speaker_wav
    elif args.speaker:
        kwargs["speaker"] = args.speaker
    else:
        print("speaker_wav or speaker is required", file=sys.stderr)
        return 2
    tts.tts_to_file(**kwargs)
    return 0


if __name__ == "__main__":
    sys.exit(main())
`
