package bundler

// MissingEntryDocument is rendered when the project has no index.html.
const MissingEntryDocument = "<h1>No index.html found. Please ensure your project has an entry point.</h1>"

const (
	tailwindCDN = "https://cdn.tailwindcss.com"
	babelCDN    = "https://unpkg.com/@babel/standalone/babel.min.js"
)

const importMap = `<script type="importmap">
{
  "imports": {
    "react": "https://esm.sh/react@18",
    "react-dom": "https://esm.sh/react-dom@18",
    "react-dom/client": "https://esm.sh/react-dom@18/client",
    "lucide-react": "https://esm.sh/lucide-react"
  }
}
</script>`

// tsxPreset lets Babel strip TypeScript from inline scripts, which have no
// filename to infer the syntax from.
const tsxPreset = `<script>
Babel.registerPreset("tsx", {
  presets: [[Babel.availablePresets["typescript"], { allExtensions: true, isTSX: true }]]
});
</script>`

// bridgeScript forwards console output and uncaught errors to the embedding
// page as {type: "CONSOLE_LOG", logLevel, message} messages.
const bridgeScript = `<script>
(function () {
  var format = function (arg) {
    if (arg instanceof Error) return arg.stack || arg.message;
    if (typeof arg === 'object' && arg !== null) {
      try { return JSON.stringify(arg); } catch (e) { return String(arg); }
    }
    return String(arg);
  };
  var send = function (level, args) {
    var message = Array.prototype.map.call(args, format).join(' ');
    try {
      window.parent.postMessage({ type: 'CONSOLE_LOG', logLevel: level, message: message }, '*');
    } catch (e) {}
  };
  ['log', 'info', 'warn', 'error'].forEach(function (level) {
    var original = console[level];
    console[level] = function () {
      send(level, arguments);
      if (original) original.apply(console, arguments);
    };
  });
  window.onerror = function (message, source, line) {
    send('error', [line ? message + ' (line ' + line + ')' : message]);
  };
  window.addEventListener('unhandledrejection', function (event) {
    var reason = event.reason && event.reason.message ? event.reason.message : event.reason;
    send('error', ['Unhandled rejection: ' + reason]);
  });
})();
</script>`

// mountScript renders the declared entry symbol into #root, falling back to
// #app and finally to a freshly created #root. An undefined symbol is a no-op.
const mountScript = `
const __mountNode = document.getElementById('root') || document.getElementById('app') || (function () {
  const el = document.createElement('div');
  el.id = 'root';
  document.body.appendChild(el);
  return el;
})();
try {
  if (typeof %[1]s !== 'undefined') {
    createRoot(__mountNode).render(React.createElement(%[1]s));
  }
} catch (e) {
  console.error('Render Error:', e);
}
`
